package model

import (
	"math"
	"time"
)

type StockState string

const (
	StateInStock    StockState = "IN_STOCK"
	StateLowStock   StockState = "LOW_STOCK"
	StateOutOfStock StockState = "OUT_OF_STOCK"
)

// MaxQuantity is the largest quantity the INT stock columns hold.
const MaxQuantity = math.MaxInt32

type QuantityOperation string

const (
	OperationSet       QuantityOperation = "set"
	OperationIncrement QuantityOperation = "increment"
	OperationDecrement QuantityOperation = "decrement"
)

func (o QuantityOperation) Valid() bool {
	switch o {
	case OperationSet, OperationIncrement, OperationDecrement:
		return true
	}
	return false
}

// StockFlags are derived on every quantity change and never written by clients.
type StockFlags struct {
	WasOutOfStock          bool `db:"was_out_of_stock" json:"wasOutOfStock"`
	IsLowStockAlertSent    bool `db:"is_low_stock_alert_sent" json:"isLowStockAlertSent"`
	IsBackInStockAlertSent bool `db:"is_back_in_stock_alert_sent" json:"isBackInStockAlertSent"`
}

// StockTarget is the row whose quantity a change applies to: a simple
// product, or one variant of a variant-bearing product.
type StockTarget struct {
	ProductID   string     `db:"product_id"`
	VariantID   *string    `db:"variant_id"`
	SKU         string     `db:"sku"`
	Name        string     `db:"name"`
	HasVariants bool       `db:"has_variants"`
	Quantity    int        `db:"quantity"`
	RestockedAt *time.Time `db:"restocked_at"`
	Version     int64      `db:"version"`
	StockFlags
}

func (t StockTarget) IsVariant() bool { return t.VariantID != nil }

// StockTransition is returned to callers of an inventory change so that
// downstream consumers can react without re-reading the store.
type StockTransition struct {
	ProductID        string            `json:"productId"`
	VariantID        *string           `json:"variantId,omitempty"`
	Operation        QuantityOperation `json:"operation"`
	PreviousQuantity int               `json:"previousQuantity"`
	NewQuantity      int               `json:"newQuantity"`
	State            StockState        `json:"state"`
	WasOutOfStock    bool              `json:"wasOutOfStock"`
	IsBackInStock    bool              `json:"isBackInStock"`
	HasSubscribers   bool              `json:"hasSubscribers"`
}
