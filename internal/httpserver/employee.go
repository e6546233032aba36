package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/service"
)

type EmployeeHandler struct {
	Employees *service.EmployeeService
}

func (h *EmployeeHandler) Create(c echo.Context) error {
	var req service.CreateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	emp, err := h.Employees.Create(c.Request().Context(), CallerFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, emp)
}

func (h *EmployeeHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	emp, err := h.Employees.Get(c.Request().Context(), CallerFrom(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, emp)
}

func (h *EmployeeHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	emps, err := h.Employees.List(c.Request().Context(), CallerFrom(c), queryUint(c, "store_id"), limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, emps)
}

func (h *EmployeeHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req service.UpdateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	emp, err := h.Employees.Update(c.Request().Context(), CallerFrom(c), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, emp)
}

func (h *EmployeeHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.Employees.Delete(c.Request().Context(), CallerFrom(c), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
