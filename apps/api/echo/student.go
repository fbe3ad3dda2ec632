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
	"github.com/shulehq/shule/core/query"
	"github.com/shulehq/shule/core/student"
	"github.com/shulehq/shule/core/user"
)

type studentApi struct {
	repo       student.Repository
	userSvc    user.ServiceInterface
	acc        *access.Engine
	validate   *validator.Validate
	translator ut.Translator
}

func registerStudentAPI(
	g *echo.Group,
	repo student.Repository,
	userSvc user.ServiceInterface,
	acc *access.Engine,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := studentApi{
		repo:       repo,
		userSvc:    userSvc,
		acc:        acc,
		validate:   validate,
		translator: translator,
	}

	g.GET("/students", api.list)
	g.POST("/students", api.create)
}

// Handlers

// list serves the roster. Admins pick the school explicitly; teachers are
// scoped to their own school and parents to their own children by the access
// engine's filter, which is ANDed onto the query before execution.
func (api *studentApi) list(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	decision, err := api.acc.Evaluate(ctx.Request().Context(), &usr, core.CollectionStudents, access.OpRead)
	if err != nil {
		return errors.Wrap(err, "evaluating access")
	}
	if decision.Denied() {
		return errHTTPForbidden
	}

	base := query.Expr{}
	if usr.IsAdmin() {
		sid := ctx.QueryParam("schoolId")
		if sid == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "schoolId", Error: "this parameter is required"})
		}
		schoolID, err := strconv.Atoi(sid)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "schoolId", Error: "must be an integer"})
		}
		base = query.Eq("school", schoolID)
	}

	// parents get their own children only, filters ignored
	if !usr.IsParent() {
		if grade := ctx.QueryParam("grade"); grade != "" {
			base = query.And(base, query.Eq("grade", grade))
		}
		if status := ctx.QueryParam("status"); status != "" {
			base = query.And(base, query.Eq("enrollmentStatus", status))
		}
		if term := ctx.QueryParam("search"); term != "" {
			base = query.And(base, query.Or(
				query.Contains("firstName", term),
				query.Contains("lastName", term),
				query.Contains("studentId", term),
			))
		}
	}

	where, err := decision.Scope(base)
	if err != nil {
		return errHTTPForbidden
	}

	page, limit := bindPageParams(ctx)
	res, err := api.repo.FindMany(ctx.Request().Context(), core.FindOptions{
		Where: where,
		Page:  page,
		Limit: limit,
		Sort:  "lastName",
	})
	if err != nil {
		return errors.Wrap(err, "querying students")
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

func (api *studentApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	decision, err := api.acc.Evaluate(ctx.Request().Context(), &usr, core.CollectionStudents, access.OpCreate)
	if err != nil {
		return errors.Wrap(err, "evaluating access")
	}
	if !decision.Allowed() {
		return errHTTPForbidden
	}

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	st := student.Student{
		FirstName:        data.FirstName,
		LastName:         data.LastName,
		DateOfBirth:      data.DateOfBirth,
		Grade:            data.Grade,
		School:           data.School,
		Parents:          data.Parents,
		EnrollmentStatus: data.EnrollmentStatus,
		StudentID:        data.StudentID,
	}
	student.ApplyCreateHooks(&usr, &st)
	if st.School == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "school", Error: "this field is required"})
	}

	st, err = api.repo.Create(ctx.Request().Context(), st)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: true, Data: st})
}
