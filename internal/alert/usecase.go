package alert

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	Subscribe(ctx context.Context, userID, productID string) (*model.StockAlert, error)
	Unsubscribe(ctx context.Context, userID, productID string) error
	UnsubscribeByID(ctx context.Context, userID, alertID string) error
	ListSubscriptions(ctx context.Context, userID string) ([]model.StockAlert, error)
	PendingCount(ctx context.Context, productID string) (int, error)

	// OnRestock fans out one notice per pending subscriber, at most once per
	// restock event. It returns the number of notices produced.
	OnRestock(ctx context.Context, target model.StockTarget, transition model.StockTransition) (int, error)
}
