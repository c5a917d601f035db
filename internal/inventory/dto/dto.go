package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type StockFilters struct {
	Threshold int
	Page      int
	PageSize  int
}

type MovementFilters struct {
	ProductID     string
	VariantID     *string
	ReferenceType string
	Page          int
	PageSize      int
}

// StockItem is one row of the admin stock listings.
type StockItem struct {
	ProductID   string           `db:"product_id" json:"productId"`
	VariantID   *string          `db:"variant_id" json:"variantId,omitempty"`
	SKU         string           `db:"sku" json:"sku"`
	Name        string           `db:"name" json:"name"`
	Quantity    int              `db:"quantity" json:"quantity"`
	State       model.StockState `db:"-" json:"state"`
	RestockedAt *time.Time       `db:"restocked_at" json:"restockedAt,omitempty"`
	model.StockFlags
}

// StockChange is a computed transition ready to be persisted against the
// version it was derived from.
type StockChange struct {
	Target      model.StockTarget
	NewQuantity int
	Flags       model.StockFlags
	Restocked   bool
	Movement    *model.InventoryMovement
}
