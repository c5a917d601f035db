package product

import (
	"context"

	inventorydto "github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	ListFeatured(ctx context.Context) ([]model.Product, error)
	ListRelated(ctx context.Context, id string, limit int) ([]model.Product, error)
	SearchProducts(ctx context.Context, query string, page, pageSize int) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, id string, input *dto.UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	SetFeatured(ctx context.Context, input *dto.SetFeaturedRequest) (int64, error)

	AddVariant(ctx context.Context, productID string, input *dto.VariantInput) (*model.ProductVariant, error)
	UpdateVariant(ctx context.Context, productID, variantID string, input *dto.UpdateVariantRequest) (*model.ProductVariant, error)
	ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error)
}

// StockUpdater applies quantity changes through the inventory state machine.
type StockUpdater interface {
	ApplyQuantityChange(ctx context.Context, input *inventorydto.QuantityChangeInput) (*model.StockTransition, error)
}
