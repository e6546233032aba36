package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/service"
)

type StoreHandler struct {
	Stores *service.StoreService
}

func (h *StoreHandler) Create(c echo.Context) error {
	var req service.StoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	store, err := h.Stores.Create(c.Request().Context(), CallerFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, store)
}

func (h *StoreHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	store, err := h.Stores.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	stores, err := h.Stores.List(c.Request().Context(), limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stores)
}

func (h *StoreHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req service.StoreRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	store, err := h.Stores.Update(c.Request().Context(), CallerFrom(c), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, store)
}

func (h *StoreHandler) Delete(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.Stores.Delete(c.Request().Context(), CallerFrom(c), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
