package inventory

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

func TestApplyOperation(t *testing.T) {
	tests := []struct {
		name    string
		current int
		amount  int
		op      model.QuantityOperation
		want    int
	}{
		{"set", 7, 3, model.OperationSet, 3},
		{"default is set", 7, 2, "", 2},
		{"increment", 7, 3, model.OperationIncrement, 10},
		{"decrement", 7, 3, model.OperationDecrement, 4},
		{"decrement floors at zero", 2, 5, model.OperationDecrement, 0},
		{"set zero", 4, 0, model.OperationSet, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyOperation(tt.current, tt.amount, tt.op)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyOperationRejectsNegative(t *testing.T) {
	_, err := ApplyOperation(3, -1, model.OperationSet)
	if !errors.Is(err, apperr.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	_, err = ApplyOperation(3, 1, "multiply")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestApplyOperationRejectsQuantityAboveColumnRange(t *testing.T) {
	tests := []struct {
		name    string
		current int
		amount  int
		op      model.QuantityOperation
	}{
		{"increment overflowing int", 5, math.MaxInt, model.OperationIncrement},
		{"increment past the column", model.MaxQuantity - 2, 3, model.OperationIncrement},
		{"set past the column", 0, model.MaxQuantity + 1, model.OperationSet},
		{"decrement by a huge amount", 5, math.MaxInt, model.OperationDecrement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyOperation(tt.current, tt.amount, tt.op)
			if !errors.Is(err, apperr.ErrInvalidQuantity) {
				t.Fatalf("expected ErrInvalidQuantity, got %d %v", got, err)
			}
		})
	}

	got, err := ApplyOperation(model.MaxQuantity-3, 3, model.OperationIncrement)
	if err != nil || got != model.MaxQuantity {
		t.Fatalf("the column maximum itself is valid, got %d %v", got, err)
	}
}

// Any sequence of operations matches naive arithmetic with a floor at zero.
func TestApplyOperationMatchesArithmetic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ops := []model.QuantityOperation{model.OperationSet, model.OperationIncrement, model.OperationDecrement}

	for run := 0; run < 200; run++ {
		q, naive := 0, 0
		for step := 0; step < 30; step++ {
			op := ops[rng.Intn(len(ops))]
			amount := rng.Intn(12)

			next, err := ApplyOperation(q, amount, op)
			if err != nil {
				t.Fatalf("run %d step %d: %v", run, step, err)
			}
			switch op {
			case model.OperationSet:
				naive = amount
			case model.OperationIncrement:
				naive += amount
			case model.OperationDecrement:
				naive -= amount
				if naive < 0 {
					naive = 0
				}
			}
			if next != naive {
				t.Fatalf("run %d step %d: %s %d gave %d, want %d", run, step, op, amount, next, naive)
			}
			q = next
		}
	}
}

func TestStateOf(t *testing.T) {
	cases := map[int]model.StockState{
		0:  model.StateOutOfStock,
		1:  model.StateLowStock,
		5:  model.StateLowStock,
		6:  model.StateInStock,
		-1: model.StateOutOfStock,
	}
	for q, want := range cases {
		if got := StateOf(q, 5); got != want {
			t.Fatalf("StateOf(%d) = %s, want %s", q, got, want)
		}
	}
}

func TestTransitionRestockResetsGuards(t *testing.T) {
	flags := model.StockFlags{WasOutOfStock: true, IsBackInStockAlertSent: true, IsLowStockAlertSent: true}
	out := Transition(0, 3, 5, flags)

	if !out.Restocked {
		t.Fatalf("expected restock")
	}
	if out.State != model.StateLowStock {
		t.Fatalf("expected LOW_STOCK, got %s", out.State)
	}
	if out.Flags != (model.StockFlags{}) {
		t.Fatalf("expected all flags cleared, got %+v", out.Flags)
	}
}

func TestTransitionToOutOfStock(t *testing.T) {
	flags := model.StockFlags{IsLowStockAlertSent: true, IsBackInStockAlertSent: true}
	out := Transition(10, 0, 5, flags)

	if out.Restocked {
		t.Fatalf("unexpected restock")
	}
	if out.State != model.StateOutOfStock {
		t.Fatalf("expected OUT_OF_STOCK, got %s", out.State)
	}
	want := model.StockFlags{WasOutOfStock: true, IsBackInStockAlertSent: true}
	if out.Flags != want {
		t.Fatalf("got %+v, want %+v", out.Flags, want)
	}
}

func TestTransitionLowAndInStockKeepFlags(t *testing.T) {
	flags := model.StockFlags{IsLowStockAlertSent: true}

	low := Transition(10, 3, 5, flags)
	if low.State != model.StateLowStock || low.Flags != flags || low.Restocked {
		t.Fatalf("low stock outcome %+v", low)
	}
	high := Transition(3, 20, 5, flags)
	if high.State != model.StateInStock || high.Flags != flags || high.Restocked {
		t.Fatalf("in stock outcome %+v", high)
	}
}

// 0 -> 0 is not a restock, and repeated out-of-stock saves stay idempotent.
func TestTransitionZeroToZero(t *testing.T) {
	flags := model.StockFlags{WasOutOfStock: true}
	out := Transition(0, 0, 5, flags)
	if out.Restocked || out.Flags != flags {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if again := Transition(0, 0, 5, out.Flags); again != out {
		t.Fatalf("transition not idempotent: %+v vs %+v", again, out)
	}
}

func TestLowStockAlertFlippableOnce(t *testing.T) {
	flags := InitialFlags(10)
	if flags.WasOutOfStock {
		t.Fatalf("stocked product must not start out of stock")
	}

	out := Transition(10, 3, 5, flags)
	if !NeedsLowStockAlert(out.State, out.Flags) {
		t.Fatalf("expected low-stock alert to be owed")
	}
	out.Flags.IsLowStockAlertSent = true

	out = Transition(3, 2, 5, out.Flags)
	if NeedsLowStockAlert(out.State, out.Flags) {
		t.Fatalf("low-stock alert must not fire twice inside the band")
	}

	out = Transition(2, 0, 5, out.Flags)
	if !out.Flags.WasOutOfStock || out.Flags.IsLowStockAlertSent {
		t.Fatalf("unexpected flags after sell-out %+v", out.Flags)
	}
}

func TestInitialFlags(t *testing.T) {
	if !InitialFlags(0).WasOutOfStock {
		t.Fatalf("zero quantity starts out of stock")
	}
}
