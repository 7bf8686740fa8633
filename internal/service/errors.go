package service

import (
	"errors"
	"fmt"

	"inventory-service/internal/store"
)

var (
	ErrProductNotFound = store.ErrProductNotFound
	ErrBatchNotFound   = store.ErrBatchNotFound
	ErrSaleNotFound    = store.ErrSaleNotFound
	ErrMetricsNotFound = store.ErrMetricsNotFound

	// ErrInvalidInput marks requests rejected before any mutation.
	ErrInvalidInput = errors.New("invalid input")
)

// InsufficientStockError reports a deduction or validation that exceeded
// available stock. It is never raised after a partial deduction.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q: needed %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// IsInsufficientStock reports whether err wraps an InsufficientStockError
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
