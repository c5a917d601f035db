// Package notification delivers stock notices produced by the inventory core
// to the outside world. Delivery is fire-and-forget: callers log failures and
// never retry.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventBackInStock = "ProductBackInStock"
	EventLowStock    = "ProductLowStock"
)

// BackInStock is one (user, product) pair owed a restock notice.
type BackInStock struct {
	AlertID     string    `json:"alert_id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	VariantID   *string   `json:"variant_id,omitempty"`
	SKU         string    `json:"sku"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	RestockedAt time.Time `json:"restocked_at"`
}

// LowStock is the admin notice sent once per entry into the low-stock band.
type LowStock struct {
	ProductID   string    `json:"product_id"`
	VariantID   *string   `json:"variant_id,omitempty"`
	SKU         string    `json:"sku"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Threshold   int       `json:"threshold"`
	DetectedAt  time.Time `json:"detected_at"`
}

type Publisher interface {
	PublishBackInStock(ctx context.Context, notices []BackInStock) error
	PublishLowStock(ctx context.Context, notice LowStock) error
}

// Event is the envelope written to the broker, in the same shape as the
// order events the service consumes.
type Event struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

func encode(eventType string, payload interface{}) ([]byte, error) {
	return json.Marshal(Event{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	})
}
