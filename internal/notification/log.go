package notification

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"go.uber.org/zap"
)

// LogPublisher writes notices to the service log. Used when no broker is
// configured.
type LogPublisher struct {
	logger logger.ZapLogger
}

func NewLogPublisher(log logger.ZapLogger) *LogPublisher {
	return &LogPublisher{logger: log}
}

func (p *LogPublisher) PublishBackInStock(ctx context.Context, notices []BackInStock) error {
	for _, n := range notices {
		p.logger.Info("back in stock notification",
			zap.String("user_id", n.UserID),
			zap.String("product_id", n.ProductID),
			zap.String("sku", n.SKU),
			zap.Int("quantity", n.Quantity),
		)
	}
	return nil
}

func (p *LogPublisher) PublishLowStock(ctx context.Context, notice LowStock) error {
	p.logger.Warn("low stock notification",
		zap.String("product_id", notice.ProductID),
		zap.String("sku", notice.SKU),
		zap.Int("quantity", notice.Quantity),
		zap.Int("threshold", notice.Threshold),
	)
	return nil
}
