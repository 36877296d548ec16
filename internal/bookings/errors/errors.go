package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrLinkNotFound = errors.New("booking link not found")

	ErrLinkInactive = errors.New("booking link is deactivated")

	ErrLinkUsed = errors.New("booking link has already been used")

	ErrAlreadySigned = errors.New("booking has already been signed")

	ErrAlreadyCancelled = errors.New("booking is already cancelled")

	ErrAlreadyRefunded = errors.New("booking has already been refunded")
)

// NoStockError rejects a reservation when a product has no free units left on
// one of the requested days.
type NoStockError struct {
	ProductName string
	Date        string
}

func (e *NoStockError) Error() string {
	return fmt.Sprintf("no stock available for %s on %s", e.ProductName, e.Date)
}

// InsufficientStockError rejects a reservation when a product has some free
// units on a day, but fewer than requested.
type InsufficientStockError struct {
	ProductName string
	Date        string
	Requested   int
	Free        int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d of %d units of %s available on %s", e.Free, e.Requested, e.ProductName, e.Date)
}
