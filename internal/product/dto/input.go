package dto

import (
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/shopspring/decimal"
)

const MaxFeaturedBatch = 500

type VariantInput struct {
	SKU             string          `json:"sku"`
	VariantName     string          `json:"variantName"`
	PriceAdjustment decimal.Decimal `json:"priceAdjustment"`
	Quantity        int             `json:"quantity"`
}

func (v *VariantInput) Validate() error {
	v.SKU = strings.TrimSpace(v.SKU)
	v.VariantName = strings.TrimSpace(v.VariantName)
	if v.VariantName == "" {
		return apperr.Validation("variantName is required")
	}
	if v.Quantity < 0 || v.Quantity > model.MaxQuantity {
		return apperr.InvalidQuantity("quantity must be between 0 and %d", model.MaxQuantity)
	}
	return nil
}

type CreateProductRequest struct {
	CategoryID  *string         `json:"categoryId"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	HasVariants bool            `json:"hasVariants"`
	IsFeatured  bool            `json:"isFeatured"`
	Quantity    int             `json:"quantity"`
	Variants    []VariantInput  `json:"variants"`
}

func (r *CreateProductRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.SKU = strings.TrimSpace(r.SKU)
	if r.Name == "" {
		return apperr.Validation("name is required")
	}
	if r.Price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if r.Quantity < 0 || r.Quantity > model.MaxQuantity {
		return apperr.InvalidQuantity("quantity must be between 0 and %d", model.MaxQuantity)
	}
	if r.CategoryID != nil && strings.TrimSpace(*r.CategoryID) == "" {
		r.CategoryID = nil
	}
	if len(r.Variants) > 0 && !r.HasVariants {
		return apperr.Validation("variants require hasVariants")
	}
	if r.HasVariants && r.Quantity != 0 {
		return apperr.Validation("quantity of a product with variants is set per variant")
	}
	for i := range r.Variants {
		if err := r.Variants[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateProductRequest carries only the fields the caller sent.
type UpdateProductRequest struct {
	CategoryID  *string          `json:"categoryId"`
	SKU         *string          `json:"sku"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsFeatured  *bool            `json:"isFeatured"`
	IsActive    *bool            `json:"isActive"`
	Quantity    *int             `json:"quantity"`
	Reason      string           `json:"reason"`
}

func (r *UpdateProductRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return apperr.Validation("name must not be empty")
		}
		r.Name = &name
	}
	if r.SKU != nil {
		sku := strings.TrimSpace(*r.SKU)
		if sku == "" {
			return apperr.Validation("sku must not be empty")
		}
		r.SKU = &sku
	}
	if r.Price != nil && r.Price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if r.Quantity != nil && (*r.Quantity < 0 || *r.Quantity > model.MaxQuantity) {
		return apperr.InvalidQuantity("quantity must be between 0 and %d", model.MaxQuantity)
	}
	return nil
}

// HasDetails reports whether any non-stock field is set.
func (r *UpdateProductRequest) HasDetails() bool {
	return r.CategoryID != nil || r.SKU != nil || r.Name != nil || r.Description != nil ||
		r.Price != nil || r.IsFeatured != nil || r.IsActive != nil
}

type SetFeaturedRequest struct {
	ProductIDs []string `json:"productIds"`
	Featured   bool     `json:"featured"`
}

func (r *SetFeaturedRequest) Validate() error {
	ids := r.ProductIDs[:0]
	seen := make(map[string]struct{}, len(r.ProductIDs))
	for _, id := range r.ProductIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	r.ProductIDs = ids
	if len(ids) == 0 {
		return apperr.Validation("productIds is required")
	}
	if len(ids) > MaxFeaturedBatch {
		return apperr.Validation("at most %d products per request", MaxFeaturedBatch)
	}
	return nil
}

type UpdateVariantRequest struct {
	SKU             *string          `json:"sku"`
	VariantName     *string          `json:"variantName"`
	PriceAdjustment *decimal.Decimal `json:"priceAdjustment"`
	IsActive        *bool            `json:"isActive"`
	Quantity        *int             `json:"quantity"`
	Reason          string           `json:"reason"`
}

func (r *UpdateVariantRequest) Validate() error {
	if r.VariantName != nil {
		name := strings.TrimSpace(*r.VariantName)
		if name == "" {
			return apperr.Validation("variantName must not be empty")
		}
		r.VariantName = &name
	}
	if r.SKU != nil {
		sku := strings.TrimSpace(*r.SKU)
		if sku == "" {
			return apperr.Validation("sku must not be empty")
		}
		r.SKU = &sku
	}
	if r.Quantity != nil && (*r.Quantity < 0 || *r.Quantity > model.MaxQuantity) {
		return apperr.InvalidQuantity("quantity must be between 0 and %d", model.MaxQuantity)
	}
	return nil
}

func (r *UpdateVariantRequest) HasDetails() bool {
	return r.SKU != nil || r.VariantName != nil || r.PriceAdjustment != nil || r.IsActive != nil
}
