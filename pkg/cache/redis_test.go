package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := &RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestJSONRoundTripAndTTL(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	if err := c.SetJSON(ctx, "product:1", payload{Name: "mug"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	hit, err := c.GetJSON(ctx, "product:1", &got)
	if err != nil || !hit || got.Name != "mug" {
		t.Fatalf("unexpected get: hit=%v err=%v got=%+v", hit, err, got)
	}

	mr.FastForward(2 * time.Minute)
	hit, err = c.GetJSON(ctx, "product:1", &got)
	if err != nil || hit {
		t.Fatalf("expected expiry miss, hit=%v err=%v", hit, err)
	}
}

func TestDeletePattern(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	for _, k := range []string{"related:p1:4", "related:p1:8", "related:p2:4", "product:p1"} {
		mr.Set(k, "x")
	}

	n, err := c.DeletePattern(ctx, "related:p1:*")
	if err != nil {
		t.Fatalf("delete pattern: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deleted, got %d", n)
	}
	if !mr.Exists("related:p2:4") || !mr.Exists("product:p1") {
		t.Fatalf("unrelated keys were removed")
	}
	if mr.Exists("related:p1:4") || mr.Exists("related:p1:8") {
		t.Fatalf("matching keys survived")
	}
}

func TestSetIfAbsent(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := c.SetIfAbsent(ctx, "inventory:order:o1:OrderCreated", time.Hour)
	if err != nil || !ok {
		t.Fatalf("first claim should succeed: ok=%v err=%v", ok, err)
	}
	ok, err = c.SetIfAbsent(ctx, "inventory:order:o1:OrderCreated", time.Hour)
	if err != nil || ok {
		t.Fatalf("second claim should fail: ok=%v err=%v", ok, err)
	}
}

func TestDeleteNoKeys(t *testing.T) {
	c, _ := newTestClient(t)
	n, err := c.Delete(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("unexpected: n=%d err=%v", n, err)
	}
}
