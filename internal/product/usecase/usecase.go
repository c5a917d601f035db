package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/cachekey"
	"github.com/fekuna/omnipos-stock-service/internal/invalidation"
	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	inventorydto "github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/readcache"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	FeaturedLimit       = 12
	DefaultRelatedLimit = 4
	MaxRelatedLimit     = 20
)

type productUseCase struct {
	repo        product.Repository
	stock       product.StockUpdater
	invalidator invalidation.Invalidator
	cache       *readcache.ReadThrough
	es          product.SearchIndex
	logger      logger.ZapLogger
}

// NewProductUseCase wires the catalog use case. es may be nil, in which case
// search runs against Postgres only.
func NewProductUseCase(
	repo product.Repository,
	stock product.StockUpdater,
	invalidator invalidation.Invalidator,
	cache *readcache.ReadThrough,
	es product.SearchIndex,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:        repo,
		stock:       stock,
		invalidator: invalidator,
		cache:       cache,
		es:          es,
		logger:      log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductRequest) (*model.Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	if input.SKU == "" {
		input.SKU = generateSKU()
	}
	if err := uc.ensureSKUUnique(ctx, input.SKU, ""); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &model.Product{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		CategoryID:  input.CategoryID,
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		HasVariants: input.HasVariants,
		IsFeatured:  input.IsFeatured,
		IsActive:    true,
		Quantity:    input.Quantity,
		StockFlags:  inventory.InitialFlags(input.Quantity),
	}

	seen := map[string]struct{}{input.SKU: {}}
	for i, v := range input.Variants {
		if v.SKU == "" {
			v.SKU = fmt.Sprintf("%s-%d", input.SKU, i+1)
		}
		if _, dup := seen[v.SKU]; dup {
			return nil, apperr.New(apperr.ErrConflict, "sku %s is used more than once", v.SKU)
		}
		seen[v.SKU] = struct{}{}
		if err := uc.ensureSKUUnique(ctx, v.SKU, ""); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, newVariant(p.ID, v, now))
	}
	if p.HasVariants {
		p.StockFlags = inventory.InitialFlags(p.TotalQuantity())
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.syncToElastic(ctx, p)
	uc.invalidator.Invalidate(ctx, nil)

	logger.FromContext(ctx, uc.logger).Info("product created",
		zap.String("product_id", p.ID),
		zap.String("sku", p.SKU),
		zap.Int("variants", len(p.Variants)),
	)
	return p, nil
}

func newVariant(productID string, v dto.VariantInput, now time.Time) model.ProductVariant {
	return model.ProductVariant{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ProductID:       productID,
		SKU:             v.SKU,
		VariantName:     v.VariantName,
		PriceAdjustment: v.PriceAdjustment,
		Quantity:        v.Quantity,
		IsActive:        true,
		StockFlags:      inventory.InitialFlags(v.Quantity),
	}
}

func generateSKU() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "PRD-" + strings.ToUpper(id[:8])
}

func (uc *productUseCase) ensureSKUUnique(ctx context.Context, sku, excludeID string) error {
	unique, err := uc.repo.IsSKUUnique(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if !unique {
		return apperr.New(apperr.ErrConflict, "sku %s already exists", sku)
	}
	return nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return readcache.Fetch(ctx, uc.cache, cachekey.Product(id), func(ctx context.Context) (*model.Product, error) {
		p, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, apperr.NotFound("product")
		}
		return p, nil
	})
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	key, err := cachekey.ProductList(filters)
	if err != nil {
		return nil, 0, err
	}
	page, err := readcache.Fetch(ctx, uc.cache, key, func(ctx context.Context) (*dto.ProductPage, error) {
		items, total, err := uc.repo.FindAll(ctx, filters)
		if err != nil {
			return nil, err
		}
		return &dto.ProductPage{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return page.Items, page.Total, nil
}

func (uc *productUseCase) ListFeatured(ctx context.Context) ([]model.Product, error) {
	return readcache.Fetch(ctx, uc.cache, cachekey.Featured(), func(ctx context.Context) ([]model.Product, error) {
		return uc.repo.FindFeatured(ctx, FeaturedLimit)
	})
}

func (uc *productUseCase) ListRelated(ctx context.Context, id string, limit int) ([]model.Product, error) {
	if limit == 0 {
		limit = DefaultRelatedLimit
	}
	if limit < 1 || limit > MaxRelatedLimit {
		return nil, apperr.Validation("limit must be between 1 and %d", MaxRelatedLimit)
	}

	return readcache.Fetch(ctx, uc.cache, cachekey.Related(id, limit), func(ctx context.Context) ([]model.Product, error) {
		p, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, apperr.NotFound("product")
		}
		return uc.repo.FindRelated(ctx, p, limit)
	})
}

func (uc *productUseCase) SearchProducts(ctx context.Context, query string, page, pageSize int) ([]model.Product, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, 0, apperr.Validation("q is required")
	}

	result, err := readcache.Fetch(ctx, uc.cache, cachekey.Search(query, page, pageSize), func(ctx context.Context) (*dto.ProductPage, error) {
		if uc.es != nil {
			items, total, err := uc.searchElastic(ctx, query, page, pageSize)
			if err == nil {
				return &dto.ProductPage{Items: items, Total: total}, nil
			}
			logger.FromContext(ctx, uc.logger).Warn("elasticsearch search failed, falling back to postgres", zap.Error(err))
		}

		active := true
		items, total, err := uc.repo.FindAll(ctx, &dto.ProductFilters{
			SearchQuery: query,
			IsActive:    &active,
			Page:        page,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, err
		}
		return &dto.ProductPage{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Total, nil
}

// searchElastic resolves hits back to Postgres rows so stock fields are current.
func (uc *productUseCase) searchElastic(ctx context.Context, query string, page, pageSize int) ([]model.Product, int, error) {
	from := 0
	if page > 1 {
		from = (page - 1) * pageSize
	}
	esQuery := map[string]interface{}{
		"from": from,
		"size": pageSize,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"query_string": map[string]interface{}{
							"query":            "*" + escapeQueryString(query) + "*",
							"fields":           []string{"name^3", "sku^2", "description"},
							"default_operator": "AND",
						},
					},
				},
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"is_active": true}},
				},
			},
		},
	}

	res, err := uc.es.Search(ctx, product.IndexName, esQuery)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc dto.ProductDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil || doc.ID == "" {
			ids = append(ids, hit.ID)
			continue
		}
		ids = append(ids, doc.ID)
	}

	products, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	return products, res.Hits.Total.Value, nil
}

var queryStringReplacer = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `=`, `\=`, `&`, `\&`, `|`, `\|`, `!`, `\!`,
	`(`, `\(`, `)`, `\)`, `{`, `\{`, `}`, `\}`, `[`, `\[`, `]`, `\]`, `^`, `\^`,
	`"`, `\"`, `~`, `\~`, `*`, `\*`, `?`, `\?`, `:`, `\:`, `/`, `\/`, `<`, ``, `>`, ``,
)

func escapeQueryString(q string) string {
	return queryStringReplacer.Replace(q)
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id string, input *dto.UpdateProductRequest) (*model.Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product")
	}
	if input.Quantity != nil && p.HasVariants {
		return nil, apperr.Validation("quantity of a product with variants is set per variant")
	}

	if input.HasDetails() {
		if input.SKU != nil && *input.SKU != p.SKU {
			if err := uc.ensureSKUUnique(ctx, *input.SKU, p.ID); err != nil {
				return nil, err
			}
			p.SKU = *input.SKU
		}
		if input.CategoryID != nil {
			if *input.CategoryID == "" {
				p.CategoryID = nil
			} else {
				p.CategoryID = input.CategoryID
			}
		}
		if input.Name != nil {
			p.Name = *input.Name
		}
		if input.Description != nil {
			p.Description = input.Description
		}
		if input.Price != nil {
			p.Price = *input.Price
		}
		if input.IsFeatured != nil {
			p.IsFeatured = *input.IsFeatured
		}
		if input.IsActive != nil {
			p.IsActive = *input.IsActive
		}
		p.UpdatedAt = time.Now()

		if err := uc.repo.Update(ctx, p); err != nil {
			return nil, err
		}
		uc.syncToElastic(ctx, p)
	}

	// A quantity change invalidates as part of the stock transition.
	if input.Quantity != nil {
		_, err := uc.stock.ApplyQuantityChange(ctx, &inventorydto.QuantityChangeInput{
			ProductID: id,
			Quantity:  input.Quantity,
			Operation: model.OperationSet,
			Reason:    input.Reason,
			ActorID:   auth.GetUserID(ctx),
		})
		if err != nil {
			// the details write above is already committed
			if input.HasDetails() {
				uc.invalidator.Invalidate(ctx, &id)
			}
			return nil, err
		}
	} else {
		uc.invalidator.Invalidate(ctx, &id)
	}

	updated, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("product")
	}
	return updated, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	deleted, err := uc.repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("product")
	}

	log := logger.FromContext(ctx, uc.logger)
	if uc.es != nil {
		if err := uc.es.Delete(ctx, product.IndexName, id); err != nil {
			log.Warn("failed to remove product from search index", zap.String("product_id", id), zap.Error(err))
		}
	}
	uc.invalidator.Invalidate(ctx, &id)

	log.Info("product deleted", zap.String("product_id", id))
	return nil
}

// SetFeatured flags a batch of products and invalidates the shared listings once.
func (uc *productUseCase) SetFeatured(ctx context.Context, input *dto.SetFeaturedRequest) (int64, error) {
	if err := input.Validate(); err != nil {
		return 0, err
	}

	n, err := uc.repo.SetFeatured(ctx, input.ProductIDs, input.Featured)
	if err != nil {
		return 0, err
	}
	uc.invalidator.Invalidate(ctx, nil)

	logger.FromContext(ctx, uc.logger).Info("featured flag updated",
		zap.Int("requested", len(input.ProductIDs)),
		zap.Int64("updated", n),
		zap.Bool("featured", input.Featured),
	)
	return n, nil
}

// AddVariant creates the variant empty and routes any initial stock through
// the state machine, so pending subscribers are notified.
func (uc *productUseCase) AddVariant(ctx context.Context, productID string, input *dto.VariantInput) (*model.ProductVariant, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	p, err := uc.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product")
	}
	if !p.HasVariants {
		return nil, apperr.Validation("product does not have variants")
	}

	if input.SKU == "" {
		input.SKU = fmt.Sprintf("%s-%d", p.SKU, len(p.Variants)+1)
	}
	if err := uc.ensureSKUUnique(ctx, input.SKU, ""); err != nil {
		return nil, err
	}

	initial := input.Quantity
	empty := *input
	empty.Quantity = 0
	v := newVariant(productID, empty, time.Now())
	if err := uc.repo.CreateVariant(ctx, &v); err != nil {
		return nil, err
	}

	if initial > 0 {
		if _, err := uc.stock.ApplyQuantityChange(ctx, &inventorydto.QuantityChangeInput{
			ProductID: productID,
			VariantID: &v.ID,
			Quantity:  &initial,
			Operation: model.OperationSet,
			Reason:    "initial stock",
			ActorID:   auth.GetUserID(ctx),
		}); err != nil {
			return nil, err
		}
	} else {
		uc.invalidator.Invalidate(ctx, &productID)
	}

	created, err := uc.repo.FindVariant(ctx, productID, v.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, apperr.NotFound("variant")
	}
	return created, nil
}

func (uc *productUseCase) UpdateVariant(ctx context.Context, productID, variantID string, input *dto.UpdateVariantRequest) (*model.ProductVariant, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	v, err := uc.repo.FindVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, apperr.NotFound("variant")
	}

	if input.HasDetails() {
		if input.SKU != nil && *input.SKU != v.SKU {
			if err := uc.ensureSKUUnique(ctx, *input.SKU, v.ID); err != nil {
				return nil, err
			}
			v.SKU = *input.SKU
		}
		if input.VariantName != nil {
			v.VariantName = *input.VariantName
		}
		if input.PriceAdjustment != nil {
			v.PriceAdjustment = *input.PriceAdjustment
		}
		if input.IsActive != nil {
			v.IsActive = *input.IsActive
		}
		v.UpdatedAt = time.Now()
		if err := uc.repo.UpdateVariant(ctx, v); err != nil {
			return nil, err
		}
	}

	if input.Quantity != nil {
		if _, err := uc.stock.ApplyQuantityChange(ctx, &inventorydto.QuantityChangeInput{
			ProductID: productID,
			VariantID: &variantID,
			Quantity:  input.Quantity,
			Operation: model.OperationSet,
			Reason:    input.Reason,
			ActorID:   auth.GetUserID(ctx),
		}); err != nil {
			if input.HasDetails() {
				uc.invalidator.Invalidate(ctx, &productID)
			}
			return nil, err
		}
	} else {
		uc.invalidator.Invalidate(ctx, &productID)
	}

	updated, err := uc.repo.FindVariant(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("variant")
	}
	return updated, nil
}

func (uc *productUseCase) ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	p, err := uc.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Variants == nil {
		return []model.ProductVariant{}, nil
	}
	return p.Variants, nil
}

// syncToElastic is best effort; failures are logged and the write stands.
func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	if err := uc.es.Index(ctx, product.IndexName, p.ID, dto.NewProductDocument(p)); err != nil {
		logger.FromContext(ctx, uc.logger).Warn("failed to index product",
			zap.String("product_id", p.ID), zap.Error(err))
	}
}
