package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/invalidation"
	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	LowStockThreshold int
	MaxRetries        int
}

type inventoryUseCase struct {
	repo        inventory.Repository
	alerts      inventory.AlertRegistry
	publisher   notification.Publisher
	invalidator invalidation.Invalidator
	metrics     *metrics.Metrics
	cfg         Config
	logger      logger.ZapLogger
}

func NewInventoryUseCase(
	repo inventory.Repository,
	alerts inventory.AlertRegistry,
	publisher notification.Publisher,
	invalidator invalidation.Invalidator,
	m *metrics.Metrics,
	cfg Config,
	log logger.ZapLogger,
) inventory.UseCase {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &inventoryUseCase{
		repo:        repo,
		alerts:      alerts,
		publisher:   publisher,
		invalidator: invalidator,
		metrics:     m,
		cfg:         cfg,
		logger:      log,
	}
}

func (uc *inventoryUseCase) ApplyQuantityChange(ctx context.Context, input *dto.QuantityChangeInput) (*model.StockTransition, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx, uc.logger).With(zap.String("product_id", input.ProductID))
	threshold := uc.cfg.LowStockThreshold

	var (
		target  *model.StockTarget
		next    int
		outcome inventory.Outcome
	)

	// Read-modify-write guarded by the row version. A lost race re-reads
	// and recomputes the transition from the fresh quantity.
	for attempt := 0; ; attempt++ {
		var err error
		target, err = uc.repo.GetStockTarget(ctx, input.ProductID, input.VariantID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			if input.VariantID != nil {
				return nil, apperr.NotFound("variant")
			}
			return nil, apperr.NotFound("product")
		}
		if target.HasVariants && !target.IsVariant() {
			return nil, apperr.Validation("variantId is required for products with variants")
		}

		next, err = inventory.ApplyOperation(target.Quantity, *input.Quantity, input.Operation)
		if err != nil {
			return nil, err
		}
		outcome = inventory.Transition(target.Quantity, next, threshold, target.StockFlags)

		saved, err := uc.repo.SaveTransition(ctx, &dto.StockChange{
			Target:      *target,
			NewQuantity: next,
			Flags:       outcome.Flags,
			Restocked:   outcome.Restocked,
			Movement:    uc.movement(input, target.Quantity, next),
		})
		if err != nil {
			return nil, err
		}
		if saved {
			break
		}

		uc.metrics.IncStockConflict()
		if attempt >= uc.cfg.MaxRetries {
			log.Warn("inventory update gave up after version conflicts", zap.Int("attempts", attempt+1))
			return nil, apperr.New(apperr.ErrConflict, "inventory was modified concurrently, please retry")
		}
		log.Debug("inventory version conflict, retrying", zap.Int("attempt", attempt+1))
	}

	transition := &model.StockTransition{
		ProductID:        target.ProductID,
		VariantID:        target.VariantID,
		Operation:        input.Operation,
		PreviousQuantity: target.Quantity,
		NewQuantity:      next,
		State:            outcome.State,
		WasOutOfStock:    outcome.Flags.WasOutOfStock,
		IsBackInStock:    outcome.Restocked,
	}
	uc.metrics.ObserveTransition(string(outcome.State))
	log.Info("inventory updated",
		zap.String("operation", string(input.Operation)),
		zap.Int("previous_quantity", transition.PreviousQuantity),
		zap.Int("new_quantity", transition.NewQuantity),
		zap.String("state", string(transition.State)),
	)

	committed := *target
	committed.Quantity = next
	committed.StockFlags = outcome.Flags
	committed.Version++

	// Side effects after commit, in order. None of them fails the request.
	if outcome.Restocked {
		n, err := uc.alerts.OnRestock(ctx, committed, *transition)
		if err != nil {
			log.Error("back-in-stock fan-out failed", zap.Error(err))
		}
		transition.HasSubscribers = n > 0
	} else {
		n, err := uc.alerts.PendingCount(ctx, target.ProductID)
		if err != nil {
			log.Warn("failed to count stock alert subscribers", zap.Error(err))
		}
		transition.HasSubscribers = n > 0
	}

	if inventory.NeedsLowStockAlert(outcome.State, outcome.Flags) {
		uc.sendLowStockAlert(ctx, log, committed, threshold)
	}

	uc.invalidator.Invalidate(ctx, &target.ProductID)

	return transition, nil
}

func (uc *inventoryUseCase) movement(input *dto.QuantityChangeInput, before, after int) *model.InventoryMovement {
	var refID *string
	if input.ReferenceID != "" {
		refID = &input.ReferenceID
	}
	var createdBy *string
	if input.ActorID != "" {
		createdBy = &input.ActorID
	}

	return &model.InventoryMovement{
		ID:             uuid.New().String(),
		ProductID:      input.ProductID,
		VariantID:      input.VariantID,
		Operation:      input.Operation,
		Amount:         *input.Quantity,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceType:  input.ReferenceType,
		ReferenceID:    refID,
		Notes:          input.Reason,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now(),
	}
}

func (uc *inventoryUseCase) sendLowStockAlert(ctx context.Context, log logger.ZapLogger, target model.StockTarget, threshold int) {
	claimed, err := uc.repo.ClaimLowStockAlert(ctx, target, threshold)
	if err != nil {
		log.Error("failed to claim low-stock alert", zap.Error(err))
		return
	}
	if !claimed {
		return
	}

	err = uc.publisher.PublishLowStock(ctx, notification.LowStock{
		ProductID:   target.ProductID,
		VariantID:   target.VariantID,
		SKU:         target.SKU,
		ProductName: target.Name,
		Quantity:    target.Quantity,
		Threshold:   threshold,
		DetectedAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Error("failed to publish low-stock alert", zap.Error(err))
		return
	}
	uc.metrics.IncLowStockAlert()
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, threshold *int, page, pageSize int) ([]dto.StockItem, int, error) {
	t := uc.cfg.LowStockThreshold
	if threshold != nil {
		if *threshold < 0 {
			return nil, 0, apperr.Validation("threshold must be a non-negative integer")
		}
		t = *threshold
	}
	items, total, err := uc.repo.FindLowStock(ctx, &dto.StockFilters{Threshold: t, Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, err
	}
	return uc.withState(items, t), total, nil
}

func (uc *inventoryUseCase) ListBackInStock(ctx context.Context, page, pageSize int) ([]dto.StockItem, int, error) {
	items, total, err := uc.repo.FindBackInStock(ctx, &dto.StockFilters{Page: page, PageSize: pageSize})
	if err != nil {
		return nil, 0, err
	}
	return uc.withState(items, uc.cfg.LowStockThreshold), total, nil
}

func (uc *inventoryUseCase) withState(items []dto.StockItem, threshold int) []dto.StockItem {
	for i := range items {
		items[i].State = inventory.StateOf(items[i].Quantity, threshold)
	}
	return items
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}
