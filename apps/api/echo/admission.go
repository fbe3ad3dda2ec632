package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehq/shule/core/admission"
	"github.com/shulehq/shule/core/user"
)

type admissionApi struct {
	svc        *admission.Service
	userSvc    user.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerAdmissionAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *admission.Service,
	userSvc user.ServiceInterface,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := admissionApi{
		svc:        svc,
		userSvc:    userSvc,
		validate:   validate,
		translator: translator,
	}

	// public lead intake: anonymous visitors may inquire
	g.POST("/inquiries", api.createInquiry)

	g.POST("/applications", api.createApplication, jwt)
}

// Handlers

func (api *admissionApi) createInquiry(ctx echo.Context) error {
	var data admission.NewInquiry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInquiry")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	inq, err := api.svc.CreateInquiry(ctx.Request().Context(), nil, data)
	if err != nil {
		return errors.Wrap(err, "creating inquiry")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: inq})
}

func (api *admissionApi) createApplication(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data admission.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	app, err := api.svc.StartApplication(ctx.Request().Context(), &usr, data)
	if err != nil {
		return errors.Wrap(err, "starting application")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: app})
}
