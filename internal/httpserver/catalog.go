package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/repo"
	"github.com/retailpos/backoffice/internal/service"
)

type CatalogHandler struct {
	Catalog *service.CatalogService
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req service.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Catalog.CreateCategory(c.Request().Context(), CallerFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	limit := queryInt(c, "limit", 100)
	offset := queryInt(c, "offset", 0)

	categories, err := h.Catalog.ListCategories(c.Request().Context(), limit, offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req service.CategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Catalog.UpdateCategory(c.Request().Context(), CallerFrom(c), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteCategory(c.Request().Context(), CallerFrom(c), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req service.ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	product, err := h.Catalog.CreateProduct(c.Request().Context(), CallerFrom(c), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	product, err := h.Catalog.GetProduct(c.Request().Context(), CallerFrom(c), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	f := repo.ProductFilter{
		StoreID:    queryUint(c, "store_id"),
		CategoryID: queryUint(c, "category_id"),
		Limit:      queryInt(c, "limit", 50),
		Offset:     queryInt(c, "offset", 0),
	}

	total, products, err := h.Catalog.ListProducts(c.Request().Context(), CallerFrom(c), f)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"total":    total,
		"products": products,
	})
}

func (h *CatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req service.ProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	product, err := h.Catalog.UpdateProduct(c.Request().Context(), CallerFrom(c), id, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteProduct(c.Request().Context(), CallerFrom(c), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) SearchProducts(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}
	from := queryInt(c, "from", 0)
	size := queryInt(c, "size", 20)

	result, err := h.Catalog.SearchProducts(c.Request().Context(), CallerFrom(c), query, from, size)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}
