package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/cachekey"
	"github.com/fekuna/omnipos-stock-service/internal/inventory"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/metrics"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventOrderCreated   = "OrderCreated"
	EventOrderCancelled = "OrderCancelled"

	actorSystem = "system"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Claimer records that an order event was handled. Satisfied by
// *cache.RedisClient.
type Claimer interface {
	SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) (int64, error)
}

type InventoryListener struct {
	consumer MessageReader
	claimer  Claimer
	claimTTL time.Duration
	uc       inventory.UseCase
	metrics  *metrics.Metrics
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewInventoryListener(consumer MessageReader, claimer Claimer, claimTTL time.Duration, uc inventory.UseCase, m *metrics.Metrics, logger logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		claimer:  claimer,
		claimTTL: claimTTL,
		uc:       uc,
		metrics:  m,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting Inventory Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Inventory Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.backoff):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID    string             `json:"id"`
	Items []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id"`
	Quantity  int     `json:"quantity"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event OrderEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		l.metrics.ObserveOrderEvent("unknown", "malformed")
		return
	}

	var (
		op        model.QuantityOperation
		reference string
		reason    string
	)
	switch event.EventType {
	case EventOrderCreated:
		op, reference, reason = model.OperationDecrement, model.ReferenceOrderSale, "Order Sale"
	case EventOrderCancelled:
		op, reference, reason = model.OperationIncrement, model.ReferenceOrderCancellation, "Order Cancelled"
	default:
		return
	}

	log := l.logger.With(zap.String("order_id", event.Payload.ID), zap.String("event_type", event.EventType))
	if event.Payload.ID == "" {
		log.Error("Order event without order id")
		l.metrics.ObserveOrderEvent(event.EventType, "malformed")
		return
	}

	if !l.claim(ctx, log, event) {
		l.metrics.ObserveOrderEvent(event.EventType, "duplicate")
		return
	}

	log.Info("Processing order event", zap.Int("items", len(event.Payload.Items)))
	ctx = logger.WithContext(ctx, log)

	failed := 0
	for _, item := range event.Payload.Items {
		quantity := item.Quantity
		input := &dto.QuantityChangeInput{
			ProductID:     item.ProductID,
			VariantID:     item.VariantID,
			Quantity:      &quantity,
			Operation:     op,
			ReferenceType: reference,
			ReferenceID:   event.Payload.ID,
			Reason:        reason,
			ActorID:       actorSystem,
		}

		if _, err := l.uc.ApplyQuantityChange(ctx, input); err != nil {
			failed++
			log.Error("Failed to adjust inventory for order item",
				zap.String("product_id", item.ProductID),
				zap.Error(err),
			)
		}
	}

	result := "applied"
	switch {
	case failed > 0 && failed == len(event.Payload.Items):
		// nothing moved, so a redelivery may apply the order
		result = "failed"
		l.release(ctx, log, event)
	case failed > 0:
		result = "partial"
	}
	l.metrics.ObserveOrderEvent(event.EventType, result)
}

// claim returns false only when the event was already handled. A claim
// store failure lets the event through.
func (l *InventoryListener) claim(ctx context.Context, log logger.ZapLogger, event OrderEvent) bool {
	if l.claimer == nil {
		return true
	}
	key := cachekey.OrderClaim(event.Payload.ID, event.EventType)
	ok, err := l.claimer.SetIfAbsent(ctx, key.String(), l.claimTTL)
	if err != nil {
		log.Warn("Failed to claim order event, processing anyway", zap.Error(err))
		return true
	}
	if !ok {
		log.Info("Order event already processed, skipping")
	}
	return ok
}

func (l *InventoryListener) release(ctx context.Context, log logger.ZapLogger, event OrderEvent) {
	if l.claimer == nil {
		return
	}
	key := cachekey.OrderClaim(event.Payload.ID, event.EventType)
	if _, err := l.claimer.Delete(ctx, key.String()); err != nil {
		log.Warn("Failed to release order event claim", zap.Error(err))
	}
}
