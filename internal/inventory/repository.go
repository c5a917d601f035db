package inventory

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type Repository interface {
	// GetStockTarget returns the product row when variantID is nil, the
	// variant row otherwise. Missing rows yield nil, nil.
	GetStockTarget(ctx context.Context, productID string, variantID *string) (*model.StockTarget, error)

	// SaveTransition writes the change and its movement row in one
	// transaction. It returns false when the row version moved on.
	SaveTransition(ctx context.Context, change *dto.StockChange) (bool, error)

	ClaimLowStockAlert(ctx context.Context, target model.StockTarget, threshold int) (bool, error)

	// Listings
	FindLowStock(ctx context.Context, filters *dto.StockFilters) ([]dto.StockItem, int, error)
	FindBackInStock(ctx context.Context, filters *dto.StockFilters) ([]dto.StockItem, int, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
