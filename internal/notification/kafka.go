package notification

import (
	"context"
	"fmt"
)

// MessageWriter is satisfied by *broker.KafkaProducer.
type MessageWriter interface {
	Publish(ctx context.Context, key string, values ...[]byte) error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// PublishBackInStock writes the whole batch keyed by product so the notices
// of one restock stay ordered on one partition.
func (p *KafkaPublisher) PublishBackInStock(ctx context.Context, notices []BackInStock) error {
	if len(notices) == 0 {
		return nil
	}
	values := make([][]byte, 0, len(notices))
	for _, n := range notices {
		data, err := encode(EventBackInStock, n)
		if err != nil {
			return fmt.Errorf("encode back-in-stock notice: %w", err)
		}
		values = append(values, data)
	}
	if err := p.writer.Publish(ctx, notices[0].ProductID, values...); err != nil {
		return fmt.Errorf("publish back-in-stock notices: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) PublishLowStock(ctx context.Context, notice LowStock) error {
	data, err := encode(EventLowStock, notice)
	if err != nil {
		return fmt.Errorf("encode low-stock notice: %w", err)
	}
	if err := p.writer.Publish(ctx, notice.ProductID, data); err != nil {
		return fmt.Errorf("publish low-stock notice: %w", err)
	}
	return nil
}
