package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/repo"
	"github.com/retailpos/backoffice/internal/service"
)

type OrderHandler struct {
	Orders *service.OrderService
}

func (h *OrderHandler) Create(c echo.Context) error {
	var req service.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Orders.CreateOrder(c.Request().Context(), CallerFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	order, err := h.Orders.GetOrder(c.Request().Context(), CallerFrom(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c echo.Context) error {
	f := repo.OrderFilter{
		StoreID:    queryUint(c, "store_id"),
		CustomerID: queryUint(c, "customer_id"),
		Status:     queryStatus(c),
		From:       queryTime(c, "from"),
		To:         queryTime(c, "to"),
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}

	orders, err := h.Orders.ListOrders(c.Request().Context(), CallerFrom(c), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Orders.UpdateStatus(c.Request().Context(), CallerFrom(c), id, req.Status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

func queryStatus(c echo.Context) *models.OrderStatus {
	v := c.QueryParam("status")
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	s := models.OrderStatus(n)
	if !s.Valid() {
		return nil
	}
	return &s
}
