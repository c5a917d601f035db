package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const stockItemColumns = `product_id, variant_id, sku, name, quantity, was_out_of_stock,
            is_low_stock_alert_sent, is_back_in_stock_alert_sent, restocked_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetStockTarget(ctx context.Context, productID string, variantID *string) (*model.StockTarget, error) {
	var target model.StockTarget
	var err error

	if variantID == nil {
		query := `
            SELECT id AS product_id, NULL AS variant_id, sku, name, has_variants, quantity,
                was_out_of_stock, is_low_stock_alert_sent, is_back_in_stock_alert_sent,
                restocked_at, version
            FROM products
            WHERE id = $1 AND deleted_at IS NULL
        `
		err = r.DB.GetContext(ctx, &target, query, productID)
	} else {
		query := `
            SELECT v.product_id, v.id AS variant_id, v.sku, p.name || ' / ' || v.variant_name AS name,
                p.has_variants, v.quantity, v.was_out_of_stock, v.is_low_stock_alert_sent,
                v.is_back_in_stock_alert_sent, v.restocked_at, v.version
            FROM product_variants v
            JOIN products p ON p.id = v.product_id
            WHERE v.id = $1 AND v.product_id = $2 AND p.deleted_at IS NULL
        `
		err = r.DB.GetContext(ctx, &target, query, *variantID, productID)
	}

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get stock target: %w", err)
	}
	return &target, nil
}

func (r *PGRepository) SaveTransition(ctx context.Context, c *dto.StockChange) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	table, id := "products", c.Target.ProductID
	if c.Target.IsVariant() {
		table, id = "product_variants", *c.Target.VariantID
	}

	// 1. Conditional update on the version the change was computed from
	updateQuery := `
        UPDATE ` + table + ` SET
            quantity = $1,
            was_out_of_stock = $2,
            is_low_stock_alert_sent = $3,
            is_back_in_stock_alert_sent = $4,
            restocked_at = CASE WHEN $5::boolean THEN NOW() ELSE restocked_at END,
            version = version + 1,
            updated_at = NOW()
        WHERE id = $6 AND version = $7
    `
	res, err := tx.ExecContext(ctx, updateQuery,
		c.NewQuantity,
		c.Flags.WasOutOfStock,
		c.Flags.IsLowStockAlertSent,
		c.Flags.IsBackInStockAlertSent,
		c.Restocked,
		id,
		c.Target.Version,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update quantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	// 2. Log Movement
	insertLogQuery := `
        INSERT INTO inventory_movements (
            id, product_id, variant_id, operation, amount, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :product_id, :variant_id, :operation, :amount, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	if _, err = tx.NamedExecContext(ctx, insertLogQuery, c.Movement); err != nil {
		return false, fmt.Errorf("failed to log movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// ClaimLowStockAlert sets the low-stock guard if the row is still inside the
// band. Only one caller wins.
func (r *PGRepository) ClaimLowStockAlert(ctx context.Context, target model.StockTarget, threshold int) (bool, error) {
	table, id := "products", target.ProductID
	if target.IsVariant() {
		table, id = "product_variants", *target.VariantID
	}
	query := `
        UPDATE ` + table + ` SET is_low_stock_alert_sent = TRUE, updated_at = NOW()
        WHERE id = $1 AND is_low_stock_alert_sent = FALSE AND quantity > 0 AND quantity <= $2
    `
	res, err := r.DB.ExecContext(ctx, query, id, threshold)
	if err != nil {
		return false, fmt.Errorf("failed to claim low-stock guard: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PGRepository) FindLowStock(ctx context.Context, f *dto.StockFilters) ([]dto.StockItem, int, error) {
	return r.findStock(ctx,
		"quantity > 0 AND quantity <= $1",
		"quantity ASC, name ASC",
		[]interface{}{f.Threshold}, f.Page, f.PageSize)
}

func (r *PGRepository) FindBackInStock(ctx context.Context, f *dto.StockFilters) ([]dto.StockItem, int, error) {
	return r.findStock(ctx,
		"quantity > 0 AND restocked_at IS NOT NULL AND was_out_of_stock = FALSE",
		"restocked_at DESC",
		nil, f.Page, f.PageSize)
}

// findStock reads the stock_targets view, which unions simple products with
// the variants of variant-bearing products.
func (r *PGRepository) findStock(ctx context.Context, where, orderBy string, args []interface{}, page, pageSize int) ([]dto.StockItem, int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM stock_targets WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count stock: %w", err)
	}

	query := "SELECT " + stockItemColumns + " FROM stock_targets WHERE " + where + " ORDER BY " + orderBy
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}

	items := []dto.StockItem{}
	if err := r.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list stock: %w", err)
	}
	return items, count, nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.VariantID != nil {
		conditions = append(conditions, "variant_id = :variant_id")
		args["variant_id"] = *f.VariantID
	}
	if f.ReferenceType != "" {
		conditions = append(conditions, "reference_type = :reference_type")
		args["reference_type"] = f.ReferenceType
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM inventory_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
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
	items := []model.InventoryMovement{}
	if err := r.DB.SelectContext(ctx, &items, r.DB.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	return items, count, nil
}
