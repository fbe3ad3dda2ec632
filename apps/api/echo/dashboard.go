package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/core/dashboard"
	"github.com/shulehq/shule/core/user"
)

type dashboardApi struct {
	svc     *dashboard.Service
	userSvc user.ServiceInterface
}

func registerDashboardAPI(g *echo.Group, svc *dashboard.Service, userSvc user.ServiceInterface) {
	api := dashboardApi{svc: svc, userSvc: userSvc}
	g.GET("/dashboard", api.get)
}

func (api *dashboardApi) get(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	data, err := api.svc.GetDashboardData(ctx.Request().Context(), usr)
	if err != nil {
		switch errors.Cause(err) {
		case dashboard.ErrAdminExcluded:
			return echo.NewHTTPError(http.StatusForbidden, "admin users should use the admin panel")
		case dashboard.ErrNoSchool:
			return core.NewValidationError(dashboard.ErrNoSchool)
		}
		return errors.Wrap(err, "aggregating dashboard")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true, Data: data})
}
