package booking

import (
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

// Status is the booking form's position in the flow
// idle → checking → {available, full} → timeSelected → submitting → {booked, error}.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusChecking     Status = "checking"
	StatusAvailable    Status = "available"
	StatusFull         Status = "full"
	StatusTimeSelected Status = "timeSelected"
	StatusSubmitting   Status = "submitting"
	StatusBooked       Status = "booked"
	StatusError        Status = "error"
)

// State is everything the booking form remembers between requests.  It is
// stored with the visitor's session, so it must stay JSON friendly.
type State struct {
	Status   Status           `json:"status"`
	Date     time.Time        `json:"date"`
	Guests   int              `json:"guests"`
	Name     string           `json:"name,omitempty"`
	Consent  bool             `json:"consent"`
	Slots    []model.Timeslot `json:"slots,omitempty"`
	Selected *model.Timeslot  `json:"selected,omitempty"`
	Message  string           `json:"message,omitempty"`
	Booked   *model.Booking   `json:"booked,omitempty"`
	Snapshot []model.Booking  `json:"snapshot,omitempty"`
	// Generation increases with every date selection; snapshots fetched for
	// an older generation are dropped.
	Generation uint64 `json:"generation"`
	// Loaded is the generation Snapshot was fetched for.  An empty snapshot
	// does not survive a JSON round trip, so this is what marks it present.
	Loaded uint64 `json:"loaded"`
}

// NewState returns an idle form with one guest.
func NewState() State {
	return State{Status: StatusIdle, Guests: 1}
}

// HasDate reports whether a date has been picked.
func (s *State) HasDate() bool { return !s.Date.IsZero() }

// HasSnapshot reports whether the bookings for the current date are loaded.
func (s *State) HasSnapshot() bool { return s.Loaded != 0 && s.Loaded == s.Generation }

func (s *State) fail(msg string) {
	s.Status = StatusError
	s.Message = msg
}
