package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const productColumns = `id, category_id, sku, name, description, price, has_variants, is_featured,
            is_active, quantity, was_out_of_stock, is_low_stock_alert_sent,
            is_back_in_stock_alert_sent, restocked_at, version, deleted_at, created_at, updated_at`

const variantColumns = `id, product_id, sku, variant_name, price_adjustment, quantity, is_active,
            was_out_of_stock, is_low_stock_alert_sent, is_back_in_stock_alert_sent,
            restocked_at, version, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO products (
            id, category_id, sku, name, description, price, has_variants, is_featured,
            is_active, quantity, was_out_of_stock, is_low_stock_alert_sent,
            is_back_in_stock_alert_sent, version, created_at, updated_at
        )
        VALUES (
            :id, :category_id, :sku, :name, :description, :price, :has_variants, :is_featured,
            :is_active, :quantity, :was_out_of_stock, :is_low_stock_alert_sent,
            :is_back_in_stock_alert_sent, :version, :created_at, :updated_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	for i := range p.Variants {
		if err := insertVariant(ctx, tx, &p.Variants[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertVariant(ctx context.Context, ext sqlx.ExtContext, v *model.ProductVariant) error {
	query := `
        INSERT INTO product_variants (
            id, product_id, sku, variant_name, price_adjustment, quantity, is_active,
            was_out_of_stock, is_low_stock_alert_sent, is_back_in_stock_alert_sent,
            version, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :sku, :variant_name, :price_adjustment, :quantity, :is_active,
            :was_out_of_stock, :is_low_stock_alert_sent, :is_back_in_stock_alert_sent,
            :version, :created_at, :updated_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, ext, query, v); err != nil {
		return fmt.Errorf("failed to insert variant %s: %w", v.SKU, err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND deleted_at IS NULL LIMIT 1`
	if err := r.DB.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product.HasVariants {
		variants, err := r.ListVariants(ctx, id)
		if err != nil {
			return nil, err
		}
		product.Variants = variants
	}
	return &product, nil
}

// FindByIDs returns the live products among ids, in the order of ids.
func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) AND deleted_at IS NULL`
	var found []model.Product
	if err := r.DB.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	if err := r.attachVariants(ctx, found); err != nil {
		return nil, err
	}

	byID := make(map[string]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	products := make([]model.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var count int

	conditions := []string{"deleted_at IS NULL"}
	args := map[string]interface{}{}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.IsFeatured != nil {
		conditions = append(conditions, "is_featured = :is_featured")
		args["is_featured"] = *f.IsFeatured
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search OR description ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// Whitelisted sort columns only.
	orderBy := "created_at DESC"
	if f.SortBy != "" {
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "price"
		case "quantity":
			orderBy = "quantity"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s, id", productColumns, whereClause, orderBy)
	if f.PageSize > 0 {
		offset := 0
		if f.Page > 1 {
			offset = (f.Page - 1) * f.PageSize
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	listQuery, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	products := []model.Product{}
	if err := r.DB.SelectContext(ctx, &products, r.DB.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

func (r *PGRepository) FindFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	query := `
        SELECT ` + productColumns + ` FROM products
        WHERE is_featured = TRUE AND is_active = TRUE AND deleted_at IS NULL
        ORDER BY updated_at DESC, id
        LIMIT $1
    `
	products := []model.Product{}
	if err := r.DB.SelectContext(ctx, &products, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// FindRelated returns active products of the same category, excluding p.
func (r *PGRepository) FindRelated(ctx context.Context, p *model.Product, limit int) ([]model.Product, error) {
	products := []model.Product{}
	if p.CategoryID == nil {
		return products, nil
	}
	query := `
        SELECT ` + productColumns + ` FROM products
        WHERE category_id = $1 AND id <> $2 AND is_active = TRUE AND deleted_at IS NULL
        ORDER BY is_featured DESC, created_at DESC, id
        LIMIT $3
    `
	if err := r.DB.SelectContext(ctx, &products, query, *p.CategoryID, p.ID, limit); err != nil {
		return nil, fmt.Errorf("failed to list related products: %w", err)
	}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// attachVariants loads the variants of every variant-bearing product in one query.
func (r *PGRepository) attachVariants(ctx context.Context, products []model.Product) error {
	ids := []string{}
	index := map[string]int{}
	for i := range products {
		if products[i].HasVariants {
			ids = append(ids, products[i].ID)
			index[products[i].ID] = i
		}
	}
	if len(ids) == 0 {
		return nil
	}

	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = ANY($1) ORDER BY created_at, id`
	var variants []model.ProductVariant
	if err := r.DB.SelectContext(ctx, &variants, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}
	for _, v := range variants {
		i := index[v.ProductID]
		products[i].Variants = append(products[i].Variants, v)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET category_id = :category_id,
            sku = :sku,
            name = :name,
            description = :description,
            price = :price,
            is_featured = :is_featured,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL
    `
	if _, err := r.DB.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *PGRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	query := `
        UPDATE products SET deleted_at = NOW(), is_active = FALSE, updated_at = NOW()
        WHERE id = $1 AND deleted_at IS NULL
    `
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) SetFeatured(ctx context.Context, ids []string, featured bool) (int64, error) {
	query := `
        UPDATE products SET is_featured = $1, updated_at = NOW()
        WHERE id = ANY($2) AND deleted_at IS NULL
    `
	res, err := r.DB.ExecContext(ctx, query, featured, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to set featured: %w", err)
	}
	return res.RowsAffected()
}

// IsSKUUnique checks products and variants, which share one SKU space.
func (r *PGRepository) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	var count int
	query := `
        SELECT (SELECT count(*) FROM products WHERE sku = $1 AND id::text <> $2)
             + (SELECT count(*) FROM product_variants WHERE sku = $1 AND id::text <> $2)
    `
	if err := r.DB.GetContext(ctx, &count, query, sku, excludeID); err != nil {
		return false, fmt.Errorf("failed to check sku: %w", err)
	}
	return count == 0, nil
}

func (r *PGRepository) ListVariants(ctx context.Context, productID string) ([]model.ProductVariant, error) {
	variants := []model.ProductVariant{}
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1 ORDER BY created_at, id`
	if err := r.DB.SelectContext(ctx, &variants, query, productID); err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	return variants, nil
}

func (r *PGRepository) FindVariant(ctx context.Context, productID, variantID string) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1 AND product_id = $2`
	if err := r.DB.GetContext(ctx, &variant, query, variantID, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return &variant, nil
}

func (r *PGRepository) CreateVariant(ctx context.Context, v *model.ProductVariant) error {
	return insertVariant(ctx, r.DB, v)
}

func (r *PGRepository) UpdateVariant(ctx context.Context, v *model.ProductVariant) error {
	query := `
        UPDATE product_variants
        SET sku = :sku,
            variant_name = :variant_name,
            price_adjustment = :price_adjustment,
            is_active = :is_active,
            updated_at = :updated_at
        WHERE id = :id AND product_id = :product_id
    `
	if _, err := r.DB.NamedExecContext(ctx, query, v); err != nil {
		return fmt.Errorf("failed to update variant: %w", err)
	}
	return nil
}
