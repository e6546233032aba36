package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/service"
)

type CustomerHandler struct {
	Customers *service.CustomerService
}

func (h *CustomerHandler) Create(c echo.Context) error {
	var req service.CustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	customer, err := h.Customers.Create(c.Request().Context(), CallerFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	customer, err := h.Customers.Get(c.Request().Context(), CallerFrom(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	customers, err := h.Customers.List(c.Request().Context(), CallerFrom(c), limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, customers)
}

func (h *CustomerHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req service.CustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	customer, err := h.Customers.Update(c.Request().Context(), CallerFrom(c), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.Customers.Delete(c.Request().Context(), CallerFrom(c), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
