package shipping

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the lifecycle service. Callers discriminate
// outcomes with errors.Is rather than matching on message text.
var (
	// ErrNotFound indicates the shipment id does not exist.
	ErrNotFound = errors.New("shipping not found")

	// ErrInvalidTransition indicates the requested state change is not
	// permitted from the shipment's current status.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrEmptyProducts indicates a create request with no line items.
	ErrEmptyProducts = errors.New("products list is empty")

	// ErrInvalidQuantity indicates a line item with quantity below 1.
	ErrInvalidQuantity = errors.New("product quantity must be at least 1")

	// ErrUnknownLocality indicates the delivery locality composite key does
	// not match any known locality.
	ErrUnknownLocality = errors.New("unknown delivery locality")
)

// TransitionError reports a rejected state change, carrying the shipment id
// and the status that blocked it.
type TransitionError struct {
	ShippingID int64
	From       Status
	To         Status
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("shipping %d cannot move from %q to %q", e.ShippingID, e.From, e.To)
}

// Is makes the error match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
