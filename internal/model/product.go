package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	CategoryID  *string          `db:"category_id" json:"categoryId"`
	SKU         string           `db:"sku" json:"sku"`
	Name        string           `db:"name" json:"name"`
	Description *string          `db:"description" json:"description"`
	Price       decimal.Decimal  `db:"price" json:"price"`
	HasVariants bool             `db:"has_variants" json:"hasVariants"`
	IsFeatured  bool             `db:"is_featured" json:"isFeatured"`
	IsActive    bool             `db:"is_active" json:"isActive"`
	Quantity    int              `db:"quantity" json:"quantity"`
	RestockedAt *time.Time       `db:"restocked_at" json:"restockedAt,omitempty"`
	Version     int64            `db:"version" json:"-"`
	DeletedAt   *time.Time       `db:"deleted_at" json:"-"`
	Variants    []ProductVariant `db:"-" json:"variants,omitempty"`
	Category    *Category        `db:"-" json:"category,omitempty"`
	StockFlags
}

// TotalQuantity is the authoritative stock of the product: the variant sum
// for variant-bearing products, the product quantity otherwise.
func (p *Product) TotalQuantity() int {
	if !p.HasVariants {
		return p.Quantity
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Quantity
	}
	return total
}

type ProductVariant struct {
	BaseModel
	ProductID       string          `db:"product_id" json:"productId"`
	SKU             string          `db:"sku" json:"sku"`
	VariantName     string          `db:"variant_name" json:"variantName"`
	PriceAdjustment decimal.Decimal `db:"price_adjustment" json:"priceAdjustment"`
	Quantity        int             `db:"quantity" json:"quantity"`
	IsActive        bool            `db:"is_active" json:"isActive"`
	RestockedAt     *time.Time      `db:"restocked_at" json:"restockedAt,omitempty"`
	Version         int64           `db:"version" json:"-"`
	StockFlags
}
