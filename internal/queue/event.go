// Package queue defines the booking events exchanged over RabbitMQ and the
// consumer that records them.
package queue

import (
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

// BookingCreatedEvent is published once the ledger has confirmed a booking.
// It repeats the record so consumers never need to query the contract.
type BookingCreatedEvent struct {
	BookingID uint64 `json:"booking_id"`
	VenueID   uint64 `json:"venue_id"`
	Guests    int    `json:"guests"`
	Name      string `json:"name"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:MM
	Account   string `json:"account,omitempty"`
	TxHash    string `json:"tx_hash,omitempty"`
	CreatedAt string `json:"created_at"` // RFC3339, UTC
}

// NewBookingCreatedEvent builds the event for b.
func NewBookingCreatedEvent(b model.Booking, account string, at time.Time) BookingCreatedEvent {
	return BookingCreatedEvent{
		BookingID: b.ID,
		VenueID:   b.VenueID,
		Guests:    b.Guests,
		Name:      b.Name,
		Date:      model.Day(b.Date).Format("2006-01-02"),
		Time:      b.Time.String(),
		Account:   account,
		CreatedAt: at.UTC().Format(time.RFC3339),
	}
}
