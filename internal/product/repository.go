package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/pkg/search"
)

type Repository interface {
	// Create inserts the product and its variants in one transaction.
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	FindFeatured(ctx context.Context, limit int) ([]model.Product, error)
	FindRelated(ctx context.Context, p *model.Product, limit int) ([]model.Product, error)
	// Update writes the catalog fields. Stock columns are owned by inventory.
	Update(ctx context.Context, p *model.Product) error
	SoftDelete(ctx context.Context, id string) (bool, error)
	SetFeatured(ctx context.Context, ids []string, featured bool) (int64, error)
	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)

	ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error)
	FindVariant(ctx context.Context, productID, variantID string) (*model.ProductVariant, error)
	CreateVariant(ctx context.Context, v *model.ProductVariant) error
	UpdateVariant(ctx context.Context, v *model.ProductVariant) error
}

// SearchIndex is satisfied by *search.Client.
type SearchIndex interface {
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResponse, error)
}
