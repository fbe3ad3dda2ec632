package echoapi

import (
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/access"
	"github.com/shulehq/shule/core/message"
	"github.com/shulehq/shule/core/query"
	"github.com/shulehq/shule/core/user"
)

type messageApi struct {
	repo       message.Repository
	templates  message.TemplateRepository
	svc        *message.Service
	userSvc    user.ServiceInterface
	acc        *access.Engine
	validate   *validator.Validate
	translator ut.Translator
}

func registerMessageAPI(
	g *echo.Group,
	repo message.Repository,
	templates message.TemplateRepository,
	svc *message.Service,
	userSvc user.ServiceInterface,
	acc *access.Engine,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := messageApi{
		repo:       repo,
		templates:  templates,
		svc:        svc,
		userSvc:    userSvc,
		acc:        acc,
		validate:   validate,
		translator: translator,
	}

	g.GET("/messages", api.list)
	g.POST("/messages", api.create)
	g.POST("/messages/:id/read", api.markRead)
	g.GET("/templates", api.listTemplates)
}

// Handlers

func (api *messageApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	decision, err := api.acc.Evaluate(ctx.Request().Context(), &usr, core.CollectionMessages, access.OpRead)
	if err != nil {
		return errors.Wrap(err, "evaluating access")
	}
	where, err := decision.Scope(query.Expr{})
	if err != nil {
		return errHTTPForbidden
	}

	page, limit := bindPageParams(ctx)
	res, err := api.repo.FindMany(ctx.Request().Context(), core.FindOptions{
		Where: where,
		Page:  page,
		Limit: limit,
		Sort:  "-createdAt",
	})
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}

	return ctx.JSON(http.StatusOK, PageResponse{
		Success: true,
		Data:    res.Docs,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalDocs:  res.TotalDocs,
			TotalPages: res.TotalPages,
		},
	})
}

func (api *messageApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	decision, err := api.acc.Evaluate(ctx.Request().Context(), &usr, core.CollectionMessages, access.OpCreate)
	if err != nil {
		return errors.Wrap(err, "evaluating access")
	}
	if !decision.Allowed() {
		return errHTTPForbidden
	}

	var data message.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	msg, err := api.svc.Compose(ctx.Request().Context(), &usr, data)
	if err != nil {
		return errors.Wrap(err, "composing message")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: msg})
}

// markRead appends the caller's read receipt; only named recipients may mark.
func (api *messageApi) markRead(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return errHTTPNotFound
	}
	msg, err := api.repo.FindByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding message")
	}

	var isRecipient bool
	for _, rcpt := range msg.Recipients {
		if rcpt == usr.ID {
			isRecipient = true
			break
		}
	}
	if !isRecipient && !usr.IsAdmin() {
		return errHTTPForbidden
	}

	marked, err := api.svc.MarkAsRead(ctx.Request().Context(), &usr, id)
	if err != nil {
		return errors.Wrap(err, "marking message as read")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    echo.Map{"marked": marked},
	})
}

func (api *messageApi) listTemplates(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	decision, err := api.acc.Evaluate(ctx.Request().Context(), &usr, core.CollectionTemplates, access.OpRead)
	if err != nil {
		return errors.Wrap(err, "evaluating access")
	}
	where, err := decision.Scope(query.Expr{})
	if err != nil {
		return errHTTPForbidden
	}

	page, limit := bindPageParams(ctx)
	res, err := api.templates.FindMany(ctx.Request().Context(), core.FindOptions{
		Where: where,
		Page:  page,
		Limit: limit,
		Sort:  "name",
	})
	if err != nil {
		return errors.Wrap(err, "querying message templates")
	}

	return ctx.JSON(http.StatusOK, PageResponse{
		Success: true,
		Data:    res.Docs,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalDocs:  res.TotalDocs,
			TotalPages: res.TotalPages,
		},
	})
}
