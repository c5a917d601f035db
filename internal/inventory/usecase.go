package inventory

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	ApplyQuantityChange(ctx context.Context, input *dto.QuantityChangeInput) (*model.StockTransition, error)
	ListLowStock(ctx context.Context, threshold *int, page, pageSize int) ([]dto.StockItem, int, error)
	ListBackInStock(ctx context.Context, page, pageSize int) ([]dto.StockItem, int, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}

// AlertRegistry is the part of the stock-alert registry a quantity change
// reports to.
type AlertRegistry interface {
	OnRestock(ctx context.Context, target model.StockTarget, transition model.StockTransition) (int, error)
	PendingCount(ctx context.Context, productID string) (int, error)
}
