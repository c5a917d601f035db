package model

import "time"

const (
	ReferenceManual            = "manual"
	ReferenceOrderSale         = "order_sale"
	ReferenceOrderCancellation = "order_cancellation"
)

type InventoryMovement struct {
	ID             string            `db:"id" json:"id"`
	ProductID      string            `db:"product_id" json:"productId"`
	VariantID      *string           `db:"variant_id" json:"variantId,omitempty"`
	Operation      QuantityOperation `db:"operation" json:"operation"`
	Amount         int               `db:"amount" json:"amount"`
	QuantityBefore int               `db:"quantity_before" json:"quantityBefore"`
	QuantityAfter  int               `db:"quantity_after" json:"quantityAfter"`
	ReferenceType  string            `db:"reference_type" json:"referenceType"`
	ReferenceID    *string           `db:"reference_id" json:"referenceId,omitempty"`
	Notes          string            `db:"notes" json:"notes"`
	CreatedBy      *string           `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
}
