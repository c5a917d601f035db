package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fekuna/omnipos-stock-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

type recordingUseCase struct {
	mu     sync.Mutex
	inputs []dto.QuantityChangeInput
	err    error
}

func (r *recordingUseCase) ApplyQuantityChange(_ context.Context, in *dto.QuantityChangeInput) (*model.StockTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, *in)
	if r.err != nil {
		return nil, r.err
	}
	return &model.StockTransition{ProductID: in.ProductID}, nil
}

func (r *recordingUseCase) ListLowStock(context.Context, *int, int, int) ([]dto.StockItem, int, error) {
	return nil, 0, nil
}

func (r *recordingUseCase) ListBackInStock(context.Context, int, int) ([]dto.StockItem, int, error) {
	return nil, 0, nil
}

func (r *recordingUseCase) ListMovements(context.Context, *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return nil, 0, nil
}

func (r *recordingUseCase) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

// sliceReader hands out queued messages, then blocks until cancelled.
type sliceReader struct {
	msgs []kafka.Message
	errs []error
}

func (s *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return kafka.Message{}, err
	}
	if len(s.msgs) > 0 {
		m := s.msgs[0]
		s.msgs = s.msgs[1:]
		return m, nil
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func newClaimer(t *testing.T) *cache.RedisClient {
	t.Helper()
	mr := miniredis.RunT(t)
	c := &cache.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { c.Close() })
	return c
}

const orderCreated = `{"event_id":"e1","event_type":"OrderCreated","payload":{"id":"o1","items":[
	{"product_id":"p1","quantity":2},
	{"product_id":"p2","variant_id":"v1","quantity":1}
]}}`

func TestOrderCreatedDecrementsEachItem(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewInventoryListener(nil, newClaimer(t), time.Hour, uc, nil, logger.NewNop())

	l.processMessage(context.Background(), []byte(orderCreated))

	if len(uc.inputs) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(uc.inputs))
	}
	first, second := uc.inputs[0], uc.inputs[1]
	if first.Operation != model.OperationDecrement || *first.Quantity != 2 || first.ReferenceType != model.ReferenceOrderSale {
		t.Fatalf("unexpected first change %+v", first)
	}
	if first.ReferenceID != "o1" || first.ActorID != "system" {
		t.Fatalf("unexpected reference %+v", first)
	}
	if second.VariantID == nil || *second.VariantID != "v1" {
		t.Fatalf("variant not forwarded: %+v", second)
	}
}

func TestRedeliveredEventAppliedOnce(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewInventoryListener(nil, newClaimer(t), time.Hour, uc, nil, logger.NewNop())

	l.processMessage(context.Background(), []byte(orderCreated))
	l.processMessage(context.Background(), []byte(orderCreated))

	if uc.count() != 2 {
		t.Fatalf("redelivery applied again: %d changes", uc.count())
	}
}

func TestOrderCancelledIncrements(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewInventoryListener(nil, newClaimer(t), time.Hour, uc, nil, logger.NewNop())

	l.processMessage(context.Background(), []byte(orderCreated))
	l.processMessage(context.Background(), []byte(`{"event_type":"OrderCancelled","payload":{"id":"o1","items":[{"product_id":"p1","quantity":2}]}}`))

	if uc.count() != 3 {
		t.Fatalf("cancellation must be claimed separately from creation, got %d changes", uc.count())
	}
	last := uc.inputs[2]
	if last.Operation != model.OperationIncrement || last.ReferenceType != model.ReferenceOrderCancellation {
		t.Fatalf("unexpected cancellation change %+v", last)
	}
}

func TestFailedOrderReleasesClaim(t *testing.T) {
	uc := &recordingUseCase{err: errors.New("connection reset")}
	l := NewInventoryListener(nil, newClaimer(t), time.Hour, uc, nil, logger.NewNop())

	l.processMessage(context.Background(), []byte(orderCreated))
	uc.err = nil
	l.processMessage(context.Background(), []byte(orderCreated))

	if uc.count() != 4 {
		t.Fatalf("redelivery of an order that moved no stock must be applied, got %d attempts", uc.count())
	}

	// once applied, the claim holds
	l.processMessage(context.Background(), []byte(orderCreated))
	if uc.count() != 4 {
		t.Fatalf("applied order processed again: %d attempts", uc.count())
	}
}

func TestIgnoredAndMalformedMessages(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewInventoryListener(nil, nil, time.Hour, uc, nil, logger.NewNop())

	l.processMessage(context.Background(), []byte(`not json`))
	l.processMessage(context.Background(), []byte(`{"event_type":"OrderShipped","payload":{"id":"o1"}}`))
	l.processMessage(context.Background(), []byte(`{"event_type":"OrderCreated","payload":{"items":[{"product_id":"p1","quantity":1}]}}`))

	if uc.count() != 0 {
		t.Fatalf("expected no changes, got %d", uc.count())
	}
}

type brokenClaimer struct{}

func (brokenClaimer) SetIfAbsent(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenClaimer) Delete(context.Context, ...string) (int64, error) {
	return 0, errors.New("redis down")
}

func TestClaimFailureStillProcesses(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewInventoryListener(nil, brokenClaimer{}, time.Hour, uc, nil, logger.NewNop())

	l.processMessage(context.Background(), []byte(orderCreated))
	if uc.count() != 2 {
		t.Fatalf("expected processing despite claim failure, got %d", uc.count())
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	uc := &recordingUseCase{}
	reader := &sliceReader{
		errs: []error{errors.New("broker hiccup")},
		msgs: []kafka.Message{{Value: []byte(orderCreated)}},
	}
	l := NewInventoryListener(reader, nil, time.Hour, uc, nil, logger.NewNop())
	l.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for uc.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("listener did not process the queued message")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("listener did not stop")
	}
}
