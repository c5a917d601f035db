package alert

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	GetProductStock(ctx context.Context, productID string) (*dto.ProductStock, error)

	// Subscriptions
	HasPending(ctx context.Context, userID, productID string) (bool, error)
	Insert(ctx context.Context, alert *model.StockAlert) error
	DeletePending(ctx context.Context, userID, productID string) (int64, error)
	DeletePendingByID(ctx context.Context, userID, alertID string) (int64, error)
	List(ctx context.Context, filters *dto.SubscriptionFilters) ([]model.StockAlert, error)
	PendingCount(ctx context.Context, productID string) (int, error)

	// Restock fan-out
	ClaimBackInStock(ctx context.Context, target model.StockTarget) (bool, error)
	DrainPending(ctx context.Context, productID string) ([]model.StockAlert, error)
}
