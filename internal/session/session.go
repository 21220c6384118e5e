// Package session keeps per-visitor view state between requests: which page
// is open and where the booking form stands.  Sessions live in Redis when it
// is reachable and in process memory otherwise.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-booking/internal/booking"
	"github.com/iliyamo/restaurant-booking/internal/nav"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// Session is one visitor's view state.
type Session struct {
	ID        string        `json:"id"`
	Nav       nav.Shell     `json:"nav"`
	Booking   booking.State `json:"booking"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// New returns a fresh session on the landing page with a random id.
func New() Session {
	return Session{
		ID:        uuid.NewString(),
		Booking:   booking.NewState(),
		UpdatedAt: time.Now().UTC(),
	}
}

// ValidID reports whether id looks like one New could have produced.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Store persists sessions.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session) error
	Delete(ctx context.Context, id string) error
}
