package dto

// ProductStock is the stock view of a product used to decide whether a
// subscription is allowed.
type ProductStock struct {
	ProductID   string `db:"id"`
	Name        string `db:"name"`
	SKU         string `db:"sku"`
	HasVariants bool   `db:"has_variants"`
	Quantity    int    `db:"quantity"`
}

type SubscriptionFilters struct {
	UserID string
	Status string
}
