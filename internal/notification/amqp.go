package notification

import (
	"context"
	"fmt"
)

const (
	RoutingKeyBackInStock = "inventory.back_in_stock"
	RoutingKeyLowStock    = "inventory.low_stock"
)

// ExchangePublisher is satisfied by *broker.RabbitMQPublisher.
type ExchangePublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type AMQPPublisher struct {
	exchange ExchangePublisher
}

func NewAMQPPublisher(exchange ExchangePublisher) *AMQPPublisher {
	return &AMQPPublisher{exchange: exchange}
}

func (p *AMQPPublisher) PublishBackInStock(ctx context.Context, notices []BackInStock) error {
	for _, n := range notices {
		data, err := encode(EventBackInStock, n)
		if err != nil {
			return fmt.Errorf("encode back-in-stock notice: %w", err)
		}
		if err := p.exchange.Publish(ctx, RoutingKeyBackInStock, data); err != nil {
			return fmt.Errorf("publish back-in-stock notice for user %s: %w", n.UserID, err)
		}
	}
	return nil
}

func (p *AMQPPublisher) PublishLowStock(ctx context.Context, notice LowStock) error {
	data, err := encode(EventLowStock, notice)
	if err != nil {
		return fmt.Errorf("encode low-stock notice: %w", err)
	}
	return p.exchange.Publish(ctx, RoutingKeyLowStock, data)
}
