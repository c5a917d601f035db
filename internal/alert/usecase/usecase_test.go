package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/alert/dto"
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/notification"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
)

// memRepo keeps products and subscriptions in memory.
type memRepo struct {
	mu       sync.Mutex
	products map[string]*dto.ProductStock
	guards   map[string]bool
	alerts   []model.StockAlert
}

func newMemRepo() *memRepo {
	return &memRepo{products: map[string]*dto.ProductStock{}, guards: map[string]bool{}}
}

func (r *memRepo) GetProductStock(_ context.Context, id string) (*dto.ProductStock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) HasPending(_ context.Context, userID, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.UserID == userID && a.ProductID == productID && a.Status == model.AlertPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) Insert(_ context.Context, a *model.StockAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.alerts {
		if x.UserID == a.UserID && x.ProductID == a.ProductID && x.Status == model.AlertPending {
			return apperr.New(apperr.ErrDuplicateSubscription, "already subscribed to this product")
		}
	}
	r.alerts = append(r.alerts, *a)
	return nil
}

func (r *memRepo) remove(match func(model.StockAlert) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.alerts[:0]
	var n int64
	for _, a := range r.alerts {
		if a.Status == model.AlertPending && match(a) {
			n++
			continue
		}
		kept = append(kept, a)
	}
	r.alerts = kept
	return n
}

func (r *memRepo) DeletePending(_ context.Context, userID, productID string) (int64, error) {
	return r.remove(func(a model.StockAlert) bool { return a.UserID == userID && a.ProductID == productID }), nil
}

func (r *memRepo) DeletePendingByID(_ context.Context, userID, alertID string) (int64, error) {
	return r.remove(func(a model.StockAlert) bool { return a.UserID == userID && a.ID == alertID }), nil
}

func (r *memRepo) List(_ context.Context, f *dto.SubscriptionFilters) ([]model.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.StockAlert{}
	for _, a := range r.alerts {
		if a.UserID == f.UserID && (f.Status == "" || string(a.Status) == f.Status) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) PendingCount(_ context.Context, productID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.alerts {
		if a.ProductID == productID && a.Status == model.AlertPending {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) ClaimBackInStock(_ context.Context, target model.StockTarget) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := target.ProductID
	if target.VariantID != nil {
		key = *target.VariantID
	}
	if r.guards[key] {
		return false, nil
	}
	r.guards[key] = true
	return true, nil
}

func (r *memRepo) DrainPending(_ context.Context, productID string) ([]model.StockAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	var out []model.StockAlert
	for i := range r.alerts {
		if r.alerts[i].ProductID == productID && r.alerts[i].Status == model.AlertPending {
			r.alerts[i].Status = model.AlertNotified
			r.alerts[i].NotifiedAt = &now
			out = append(out, r.alerts[i])
		}
	}
	return out, nil
}

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]notification.BackInStock
	err     error
}

func (p *capturePublisher) PublishBackInStock(_ context.Context, n []notification.BackInStock) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, n)
	return p.err
}

func (p *capturePublisher) PublishLowStock(context.Context, notification.LowStock) error { return nil }

func (p *capturePublisher) total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func setup(quantity int) (*memRepo, *capturePublisher, *alertUseCase) {
	repo := newMemRepo()
	repo.products["p1"] = &dto.ProductStock{ProductID: "p1", Name: "Mug", SKU: "PRD-1", Quantity: quantity}
	pub := &capturePublisher{}
	uc := NewAlertUseCase(repo, pub, nil, logger.NewNop()).(*alertUseCase)
	return repo, pub, uc
}

func restock(repo *memRepo, qty int) (model.StockTarget, model.StockTransition) {
	repo.products["p1"].Quantity = qty
	return model.StockTarget{ProductID: "p1", SKU: "PRD-1", Name: "Mug", Quantity: qty},
		model.StockTransition{ProductID: "p1", PreviousQuantity: 0, NewQuantity: qty, IsBackInStock: true}
}

func TestSubscribeErrors(t *testing.T) {
	ctx := context.Background()
	_, _, uc := setup(0)

	if _, err := uc.Subscribe(ctx, "u1", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := uc.Subscribe(ctx, "", "p1"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	_, _, stocked := setup(4)
	if _, err := stocked.Subscribe(ctx, "u1", "p1"); !errors.Is(err, apperr.ErrAlreadyInStock) {
		t.Fatalf("expected already in stock, got %v", err)
	}
}

func TestSubscribeTwiceKeepsOneEntry(t *testing.T) {
	ctx := context.Background()
	repo, _, uc := setup(0)

	if _, err := uc.Subscribe(ctx, "u1", "p1"); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	if _, err := uc.Subscribe(ctx, "u1", "p1"); !errors.Is(err, apperr.ErrDuplicateSubscription) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if n, _ := repo.PendingCount(ctx, "p1"); n != 1 {
		t.Fatalf("expected exactly one pending subscription, got %d", n)
	}
}

func TestUnsubscribeIsNoOpWhenAbsent(t *testing.T) {
	ctx := context.Background()
	_, _, uc := setup(0)

	if err := uc.Unsubscribe(ctx, "u1", "p1"); err != nil {
		t.Fatalf("unsubscribe without subscription: %v", err)
	}
	a, _ := uc.Subscribe(ctx, "u1", "p1")
	if err := uc.UnsubscribeByID(ctx, "someone-else", a.ID); err != nil {
		t.Fatalf("unsubscribe by id: %v", err)
	}
	if n, _ := uc.PendingCount(ctx, "p1"); n != 1 {
		t.Fatalf("another user's delete must not remove the alert")
	}
	if err := uc.UnsubscribeByID(ctx, "u1", a.ID); err != nil {
		t.Fatalf("unsubscribe by id: %v", err)
	}
	if n, _ := uc.PendingCount(ctx, "p1"); n != 0 {
		t.Fatalf("expected subscription removed, %d left", n)
	}
}

func TestRestockFansOutOnce(t *testing.T) {
	ctx := context.Background()
	repo, pub, uc := setup(0)
	uc.Subscribe(ctx, "u1", "p1")
	uc.Subscribe(ctx, "u2", "p1")

	target, tr := restock(repo, 3)
	n, err := uc.OnRestock(ctx, target, tr)
	if err != nil || n != 2 {
		t.Fatalf("first fan-out: n=%d err=%v", n, err)
	}
	n, err = uc.OnRestock(ctx, target, tr)
	if err != nil || n != 0 {
		t.Fatalf("second fan-out must be a no-op: n=%d err=%v", n, err)
	}
	if pub.total() != 2 {
		t.Fatalf("expected 2 notices, got %d", pub.total())
	}
	if got := pub.batches[0][0].Quantity; got != 3 {
		t.Fatalf("notice quantity %d", got)
	}

	if _, err := uc.Subscribe(ctx, "u3", "p1"); !errors.Is(err, apperr.ErrAlreadyInStock) {
		t.Fatalf("expected already in stock for late subscriber, got %v", err)
	}
	subs, _ := uc.ListSubscriptions(ctx, "u1")
	if len(subs) != 1 || subs[0].Status != model.AlertNotified {
		t.Fatalf("subscription not marked notified: %+v", subs)
	}
}

func TestConcurrentRestockFansOutOnce(t *testing.T) {
	ctx := context.Background()
	repo, pub, uc := setup(0)
	for _, u := range []string{"u1", "u2", "u3"} {
		uc.Subscribe(ctx, u, "p1")
	}
	target, tr := restock(repo, 5)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uc.OnRestock(ctx, target, tr)
		}()
	}
	wg.Wait()

	if pub.total() != 3 {
		t.Fatalf("expected 3 notices, got %d", pub.total())
	}
}

func TestOnRestockIgnoresNonRestock(t *testing.T) {
	_, pub, uc := setup(0)
	n, err := uc.OnRestock(context.Background(), model.StockTarget{ProductID: "p1"}, model.StockTransition{NewQuantity: 9})
	if err != nil || n != 0 || len(pub.batches) != 0 {
		t.Fatalf("unexpected fan-out n=%d err=%v", n, err)
	}
}

func TestPublishFailureIsNotRetried(t *testing.T) {
	ctx := context.Background()
	repo, pub, uc := setup(0)
	pub.err = errors.New("broker down")
	uc.Subscribe(ctx, "u1", "p1")

	target, tr := restock(repo, 2)
	n, err := uc.OnRestock(ctx, target, tr)
	if err != nil || n != 1 {
		t.Fatalf("publish failure must not fail the restock: n=%d err=%v", n, err)
	}
	if n, _ := uc.OnRestock(ctx, target, tr); n != 0 {
		t.Fatalf("guard must hold after a failed publish")
	}
}
