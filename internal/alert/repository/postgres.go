package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetProductStock(ctx context.Context, productID string) (*dto.ProductStock, error) {
	var ps dto.ProductStock
	query := `
        SELECT p.id, p.name, p.sku, p.has_variants,
            CASE WHEN p.has_variants THEN COALESCE(
                (SELECT SUM(v.quantity) FROM product_variants v WHERE v.product_id = p.id AND v.is_active), 0)
            ELSE p.quantity END AS quantity
        FROM products p
        WHERE p.id = $1 AND p.deleted_at IS NULL
    `
	err := r.DB.GetContext(ctx, &ps, query, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product stock: %w", err)
	}
	return &ps, nil
}

func (r *PGRepository) HasPending(ctx context.Context, userID, productID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM stock_alerts WHERE user_id = $1 AND product_id = $2 AND status = 'pending')`
	if err := r.DB.GetContext(ctx, &exists, query, userID, productID); err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return exists, nil
}

// Insert relies on the partial unique index on pending rows to reject a
// concurrent duplicate.
func (r *PGRepository) Insert(ctx context.Context, a *model.StockAlert) error {
	query := `
        INSERT INTO stock_alerts (id, user_id, product_id, status, created_at)
        VALUES (:id, :user_id, :product_id, :status, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, a)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperr.New(apperr.ErrDuplicateSubscription, "already subscribed to this product")
		}
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

func (r *PGRepository) DeletePending(ctx context.Context, userID, productID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM stock_alerts WHERE user_id = $1 AND product_id = $2 AND status = 'pending'`,
		userID, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscription: %w", err)
	}
	return res.RowsAffected()
}

func (r *PGRepository) DeletePendingByID(ctx context.Context, userID, alertID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM stock_alerts WHERE id = $1 AND user_id = $2 AND status = 'pending'`,
		alertID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subscription: %w", err)
	}
	return res.RowsAffected()
}

func (r *PGRepository) List(ctx context.Context, f *dto.SubscriptionFilters) ([]model.StockAlert, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{f.UserID}
	if f.Status != "" {
		conditions = append(conditions, "status = $2")
		args = append(args, f.Status)
	}

	query := "SELECT id, user_id, product_id, status, created_at, notified_at FROM stock_alerts WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY created_at DESC"

	items := []model.StockAlert{}
	if err := r.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return items, nil
}

func (r *PGRepository) PendingCount(ctx context.Context, productID string) (int, error) {
	var count int
	query := `SELECT count(*) FROM stock_alerts WHERE product_id = $1 AND status = 'pending'`
	if err := r.DB.GetContext(ctx, &count, query, productID); err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}

// ClaimBackInStock flips the guard of the restocked row. Only one caller per
// restock event gets true.
func (r *PGRepository) ClaimBackInStock(ctx context.Context, target model.StockTarget) (bool, error) {
	query := `
        UPDATE products SET is_back_in_stock_alert_sent = TRUE, updated_at = NOW()
        WHERE id = $1 AND is_back_in_stock_alert_sent = FALSE AND quantity > 0
    `
	id := target.ProductID
	if target.IsVariant() {
		query = `
        UPDATE product_variants SET is_back_in_stock_alert_sent = TRUE, updated_at = NOW()
        WHERE id = $1 AND is_back_in_stock_alert_sent = FALSE AND quantity > 0
    `
		id = *target.VariantID
	}

	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim back-in-stock guard: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PGRepository) DrainPending(ctx context.Context, productID string) ([]model.StockAlert, error) {
	query := `
        UPDATE stock_alerts SET status = 'notified', notified_at = NOW()
        WHERE product_id = $1 AND status = 'pending'
        RETURNING id, user_id, product_id, status, created_at, notified_at
    `
	items := []model.StockAlert{}
	if err := r.DB.SelectContext(ctx, &items, query, productID); err != nil {
		return nil, fmt.Errorf("failed to drain subscriptions: %w", err)
	}
	return items, nil
}
