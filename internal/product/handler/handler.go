package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/response"
	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

// --- Read path ---

func (h *ProductHandler) ListProducts(c echo.Context) error {
	page, pageSize := response.Pagination(c)
	filters := &dto.ProductFilters{
		CategoryID:  c.QueryParam("categoryId"),
		IsActive:    response.QueryBool(c, "isActive"),
		IsFeatured:  response.QueryBool(c, "isFeatured"),
		SearchQuery: c.QueryParam("q"),
		SortBy:      c.QueryParam("sortBy"),
		SortOrder:   c.QueryParam("sortOrder"),
		Page:        page,
		PageSize:    pageSize,
	}

	items, total, err := h.uc.ListProducts(c.Request().Context(), filters)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response.NewPaginated(items, total, page, pageSize))
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	p, err := h.uc.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) ListFeatured(c echo.Context) error {
	items, err := h.uc.ListFeatured(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

func (h *ProductHandler) ListRelated(c echo.Context) error {
	limit := 0
	if c.QueryParam("limit") != "" {
		limit = response.QueryInt(c, "limit", -1)
	}

	items, err := h.uc.ListRelated(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

func (h *ProductHandler) SearchProducts(c echo.Context) error {
	page, pageSize := response.Pagination(c)

	items, total, err := h.uc.SearchProducts(c.Request().Context(), c.QueryParam("q"), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response.NewPaginated(items, total, page, pageSize))
}

func (h *ProductHandler) ListVariants(c echo.Context) error {
	items, err := h.uc.ListVariants(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

// --- Mutations ---

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req dto.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req dto.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	p, err := h.uc.UpdateProduct(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	if err := h.uc.DeleteProduct(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) SetFeatured(c echo.Context) error {
	var req dto.SetFeaturedRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	n, err := h.uc.SetFeatured(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"updated": n})
}

func (h *ProductHandler) AddVariant(c echo.Context) error {
	var req dto.VariantInput
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	v, err := h.uc.AddVariant(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *ProductHandler) UpdateVariant(c echo.Context) error {
	var req dto.UpdateVariantRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	v, err := h.uc.UpdateVariant(c.Request().Context(), c.Param("id"), c.Param("variantId"), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, v)
}

func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == "quantity" {
		return apperr.InvalidQuantity("quantity must be a non-negative integer")
	}
	return apperr.Validation("invalid request body")
}
