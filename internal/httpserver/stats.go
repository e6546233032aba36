package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/service"
)

type StatsHandler struct {
	Stats *service.StatsService
}

func (h *StatsHandler) OrdersByStatus(c echo.Context) error {
	counts, err := h.Stats.OrdersByStatus(c.Request().Context(), CallerFrom(c),
		queryUint(c, "store_id"), queryTime(c, "from"), queryTime(c, "to"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, counts)
}

func (h *StatsHandler) Revenue(c echo.Context) error {
	revenue, err := h.Stats.Revenue(c.Request().Context(), CallerFrom(c),
		queryUint(c, "store_id"), queryTime(c, "from"), queryTime(c, "to"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, revenue)
}

func (h *StatsHandler) TopProducts(c echo.Context) error {
	top, err := h.Stats.TopProducts(c.Request().Context(), CallerFrom(c),
		queryUint(c, "store_id"), queryTime(c, "from"), queryTime(c, "to"),
		queryInt(c, "limit", 10))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, top)
}
