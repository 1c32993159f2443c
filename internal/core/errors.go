package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned by the sale and stock engines. Callers match them with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
)

// Shortfall describes one product whose requested quantity exceeds what is available.
type Shortfall struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// InsufficientStockError carries every shortfall detected for a request, not just the first.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("product %d: requested %d, available %d", s.ProductID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func insufficientStock(shortfalls ...Shortfall) error {
	return &InsufficientStockError{Shortfalls: shortfalls}
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// ShortfallsOf returns the shortfall list carried by err, if any.
func ShortfallsOf(err error) []Shortfall {
	var ise *InsufficientStockError
	if errors.As(err, &ise) {
		return ise.Shortfalls
	}
	return nil
}
