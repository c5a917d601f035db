package dto

import (
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// UpdateInventoryRequest is the body of PATCH /products/:id/inventory.
type UpdateInventoryRequest struct {
	Quantity  *int    `json:"quantity"`
	Operation string  `json:"operation"`
	VariantID *string `json:"variantId"`
	Reason    string  `json:"reason"`
}

type QuantityChangeInput struct {
	ProductID     string
	VariantID     *string
	Quantity      *int
	Operation     model.QuantityOperation
	ReferenceType string
	ReferenceID   string
	Reason        string
	ActorID       string
}

// Validate normalizes defaults and rejects malformed input.
func (in *QuantityChangeInput) Validate() error {
	if strings.TrimSpace(in.ProductID) == "" {
		return apperr.Validation("productId is required")
	}
	if in.VariantID != nil && strings.TrimSpace(*in.VariantID) == "" {
		in.VariantID = nil
	}
	if in.Quantity == nil {
		return apperr.InvalidQuantity("quantity is required")
	}
	if *in.Quantity < 0 {
		return apperr.InvalidQuantity("quantity must be a non-negative integer")
	}
	if *in.Quantity > model.MaxQuantity {
		return apperr.InvalidQuantity("quantity must not exceed %d", model.MaxQuantity)
	}
	if in.Operation == "" {
		in.Operation = model.OperationSet
	}
	if !in.Operation.Valid() {
		return apperr.Validation("operation must be one of set, increment, decrement")
	}
	if in.ReferenceType == "" {
		in.ReferenceType = model.ReferenceManual
	}
	return nil
}
