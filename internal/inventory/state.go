package inventory

import (
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

// Outcome is the result of evaluating a quantity change against the
// previous quantity and the current flags.
type Outcome struct {
	State     model.StockState
	Flags     model.StockFlags
	Restocked bool
}

// ApplyOperation computes the new quantity. Decrement floors at zero.
func ApplyOperation(current, amount int, op model.QuantityOperation) (int, error) {
	if amount < 0 {
		return 0, apperr.InvalidQuantity("quantity must be a non-negative integer")
	}
	if amount > model.MaxQuantity {
		return 0, apperr.InvalidQuantity("quantity must not exceed %d", model.MaxQuantity)
	}
	switch op {
	case model.OperationSet, "":
		return amount, nil
	case model.OperationIncrement:
		if amount > model.MaxQuantity-current {
			return 0, apperr.InvalidQuantity("resulting quantity must not exceed %d", model.MaxQuantity)
		}
		return current + amount, nil
	case model.OperationDecrement:
		if next := current - amount; next > 0 {
			return next, nil
		}
		return 0, nil
	default:
		return 0, apperr.Validation("unknown operation %q", op)
	}
}

func StateOf(quantity, threshold int) model.StockState {
	switch {
	case quantity <= 0:
		return model.StateOutOfStock
	case quantity <= threshold:
		return model.StateLowStock
	default:
		return model.StateInStock
	}
}

// Transition derives the state and flags for prev -> next. Rules are
// evaluated in order; the first match wins.
func Transition(prev, next, threshold int, flags model.StockFlags) Outcome {
	out := Outcome{State: StateOf(next, threshold), Flags: flags}

	switch {
	case prev <= 0 && next > 0:
		out.Flags.WasOutOfStock = false
		out.Flags.IsBackInStockAlertSent = false
		out.Flags.IsLowStockAlertSent = false
		out.Restocked = true
	case next <= 0:
		out.Flags.WasOutOfStock = true
		out.Flags.IsLowStockAlertSent = false
	}
	return out
}

// InitialFlags are the flags of a freshly created product or variant.
func InitialFlags(quantity int) model.StockFlags {
	return model.StockFlags{WasOutOfStock: quantity <= 0}
}

// NeedsLowStockAlert reports whether a low-stock notice is still owed.
func NeedsLowStockAlert(state model.StockState, flags model.StockFlags) bool {
	return state == model.StateLowStock && !flags.IsLowStockAlertSent
}
