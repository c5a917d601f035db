package model

import "time"

type AlertStatus string

const (
	AlertPending  AlertStatus = "pending"
	AlertNotified AlertStatus = "notified"
)

type StockAlert struct {
	ID         string      `db:"id" json:"id"`
	UserID     string      `db:"user_id" json:"userId"`
	ProductID  string      `db:"product_id" json:"productId"`
	Status     AlertStatus `db:"status" json:"status"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	NotifiedAt *time.Time  `db:"notified_at" json:"notifiedAt,omitempty"`
}
