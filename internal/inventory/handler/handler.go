package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/response"
	"github.com/labstack/echo/v4"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

// UpdateInventory handles PATCH /products/:id/inventory.
func (h *InventoryHandler) UpdateInventory(c echo.Context) error {
	var req dto.UpdateInventoryRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	ctx := c.Request().Context()
	input := &dto.QuantityChangeInput{
		ProductID:     c.Param("id"),
		VariantID:     req.VariantID,
		Quantity:      req.Quantity,
		Operation:     model.QuantityOperation(req.Operation),
		ReferenceType: model.ReferenceManual,
		Reason:        req.Reason,
		ActorID:       auth.GetUserID(ctx),
	}

	transition, err := h.uc.ApplyQuantityChange(ctx, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, transition)
}

func (h *InventoryHandler) ListLowStock(c echo.Context) error {
	var threshold *int
	if c.QueryParam("threshold") != "" {
		t := response.QueryInt(c, "threshold", -1)
		threshold = &t
	}
	page, pageSize := response.Pagination(c)

	items, total, err := h.uc.ListLowStock(c.Request().Context(), threshold, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response.NewPaginated(items, total, page, pageSize))
}

func (h *InventoryHandler) ListBackInStock(c echo.Context) error {
	page, pageSize := response.Pagination(c)

	items, total, err := h.uc.ListBackInStock(c.Request().Context(), page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response.NewPaginated(items, total, page, pageSize))
}

func (h *InventoryHandler) ListMovements(c echo.Context) error {
	page, pageSize := response.Pagination(c)
	filters := &dto.MovementFilters{
		ProductID:     c.Param("id"),
		ReferenceType: c.QueryParam("referenceType"),
		Page:          page,
		PageSize:      pageSize,
	}
	if v := c.QueryParam("variantId"); v != "" {
		filters.VariantID = &v
	}

	items, total, err := h.uc.ListMovements(c.Request().Context(), filters)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response.NewPaginated(items, total, page, pageSize))
}

// bindError reports a non-integer quantity as an invalid quantity and
// anything else as a malformed body.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == "quantity" {
		return apperr.InvalidQuantity("quantity must be a non-negative integer")
	}
	return apperr.Validation("invalid request body")
}
