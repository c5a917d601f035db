package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/alert"
	"github.com/fekuna/omnipos-stock-service/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type alertUseCase struct {
	repo      alert.Repository
	publisher notification.Publisher
	metrics   *metrics.Metrics
	logger    logger.ZapLogger
}

func NewAlertUseCase(repo alert.Repository, publisher notification.Publisher, m *metrics.Metrics, log logger.ZapLogger) alert.UseCase {
	return &alertUseCase{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    log,
	}
}

func (uc *alertUseCase) Subscribe(ctx context.Context, userID, productID string) (*model.StockAlert, error) {
	if userID == "" {
		return nil, apperr.New(apperr.ErrUnauthorized, "authentication required")
	}

	product, err := uc.repo.GetProductStock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperr.NotFound("product")
	}
	if product.Quantity > 0 {
		return nil, apperr.New(apperr.ErrAlreadyInStock, "product is already in stock")
	}

	exists, err := uc.repo.HasPending(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.New(apperr.ErrDuplicateSubscription, "already subscribed to this product")
	}

	a := &model.StockAlert{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Status:    model.AlertPending,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.Insert(ctx, a); err != nil {
		return nil, err
	}

	logger.FromContext(ctx, uc.logger).Info("stock alert subscribed",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
	)
	return a, nil
}

func (uc *alertUseCase) Unsubscribe(ctx context.Context, userID, productID string) error {
	_, err := uc.repo.DeletePending(ctx, userID, productID)
	return err
}

func (uc *alertUseCase) UnsubscribeByID(ctx context.Context, userID, alertID string) error {
	_, err := uc.repo.DeletePendingByID(ctx, userID, alertID)
	return err
}

func (uc *alertUseCase) ListSubscriptions(ctx context.Context, userID string) ([]model.StockAlert, error) {
	return uc.repo.List(ctx, &dto.SubscriptionFilters{UserID: userID})
}

func (uc *alertUseCase) PendingCount(ctx context.Context, productID string) (int, error) {
	return uc.repo.PendingCount(ctx, productID)
}

func (uc *alertUseCase) OnRestock(ctx context.Context, target model.StockTarget, t model.StockTransition) (int, error) {
	if !t.IsBackInStock {
		return 0, nil
	}
	log := logger.FromContext(ctx, uc.logger).With(zap.String("product_id", target.ProductID))

	// The guard is claimed before anything is published so a repeated save
	// of the same restock cannot fan out twice.
	claimed, err := uc.repo.ClaimBackInStock(ctx, target)
	if err != nil {
		return 0, err
	}
	if !claimed {
		log.Debug("back-in-stock fan-out already claimed")
		return 0, nil
	}

	alerts, err := uc.repo.DrainPending(ctx, target.ProductID)
	if err != nil {
		return 0, fmt.Errorf("drain subscriptions: %w", err)
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	notices := make([]notification.BackInStock, 0, len(alerts))
	for _, a := range alerts {
		notices = append(notices, notification.BackInStock{
			AlertID:     a.ID,
			UserID:      a.UserID,
			ProductID:   a.ProductID,
			VariantID:   target.VariantID,
			SKU:         target.SKU,
			ProductName: target.Name,
			Quantity:    t.NewQuantity,
			RestockedAt: now,
		})
	}

	if err := uc.publisher.PublishBackInStock(ctx, notices); err != nil {
		log.Error("failed to publish back-in-stock notifications",
			zap.Int("count", len(notices)),
			zap.Error(err),
		)
	}
	uc.metrics.AddRestockNotifications(len(notices))
	log.Info("back-in-stock notifications fanned out", zap.Int("count", len(notices)))
	return len(notices), nil
}
