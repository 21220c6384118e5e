package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNoIdentity means no signing account is available, so writes are blocked.
	ErrNoIdentity = errors.New("no signing account available")
	// ErrBookingCreationFailed is returned when a createBooking transaction
	// was mined but did not emit BookingCreated.
	ErrBookingCreationFailed = errors.New("Booking creation failed")
	// ErrVenueCreationFailed is the createRestaurant counterpart.
	ErrVenueCreationFailed = errors.New("Restaurant creation failed")
	// ErrBookingNotFound is returned for ids the contract has no record for.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrVenueNotFound is returned for unknown restaurant ids.
	ErrVenueNotFound = errors.New("restaurant not found")
	// ErrReverted marks a transaction mined with a failed status.
	ErrReverted = errors.New("transaction reverted")
	// ErrUnexpectedResult means a call returned values of an unexpected shape.
	ErrUnexpectedResult = errors.New("unexpected contract result")
	// ErrMalformedBooking marks a stored record whose fields cannot be a
	// booking, such as a guest count past int32 or a time like 25:00.
	ErrMalformedBooking = errors.New("malformed booking record")
)

// SubmissionError wraps a write that the node or the contract rejected.
// It is distinct from a write that went through but produced no event.
type SubmissionError struct {
	Method string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s: %v", e.Method, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
