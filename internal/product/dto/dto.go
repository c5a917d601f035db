package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type ProductFilters struct {
	CategoryID  string `json:"categoryId,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
	IsFeatured  *bool  `json:"isFeatured,omitempty"`
	SearchQuery string `json:"q,omitempty"`      // name or sku
	SortBy      string `json:"sortBy,omitempty"` // name, price, quantity, created_at
	SortOrder   string `json:"sortOrder,omitempty"`
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
}

// ProductPage is the cached shape of a paginated listing.
type ProductPage struct {
	Items []model.Product `json:"items"`
	Total int             `json:"total"`
}

// ProductDocument is what the search index holds for a product.
type ProductDocument struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CategoryID  string    `json:"category_id"`
	Price       float64   `json:"price"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewProductDocument(p *model.Product) ProductDocument {
	doc := ProductDocument{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Price:     p.Price.InexactFloat64(),
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
	}
	if p.Description != nil {
		doc.Description = *p.Description
	}
	if p.CategoryID != nil {
		doc.CategoryID = *p.CategoryID
	}
	return doc
}
