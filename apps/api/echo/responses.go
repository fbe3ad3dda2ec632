package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/shulehq/shule/core"
)

type (
	SuccessResponse struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data,omitempty"`
	}

	Pagination struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		TotalDocs  int `json:"totalDocs"`
		TotalPages int `json:"totalPages"`
	}

	PageResponse struct {
		Success    bool        `json:"success"`
		Data       interface{} `json:"data"`
		Pagination Pagination  `json:"pagination"`
	}
)

// bindPageParams reads ?page & ?limit with the store defaults.
func bindPageParams(ctx echo.Context) (page, limit int) {
	page, _ = strconv.Atoi(ctx.QueryParam("page"))
	if page <= 0 {
		page = core.DefaultPage
	}
	limit, _ = strconv.Atoi(ctx.QueryParam("limit"))
	if limit <= 0 {
		limit = core.DefaultPageLimit
	}
	return page, limit
}
