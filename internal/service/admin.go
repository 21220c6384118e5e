// Package service holds the use cases that sit between the HTTP handlers
// and the ledger: the admin listing and management, and the fan-out of
// booking events.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/booking"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

// ErrInvalidInput marks admin requests rejected before any ledger call.
var ErrInvalidInput = errors.New("invalid input")

// AdminLedger is the slice of the contract gateway the admin area uses.
type AdminLedger interface {
	ListBookingsForVenue(ctx context.Context, venueID uint64) ([]model.Booking, error)
	BookingCount(ctx context.Context) (uint64, error)
	Booking(ctx context.Context, id uint64) (model.Booking, error)
	ChangeBooking(ctx context.Context, b model.Booking) (bool, error)
	RemoveBooking(ctx context.Context, id uint64) (bool, error)
	CreateVenue(ctx context.Context, name string) (uint64, error)
}

// AdminRow is one booking as the admin table shows it.
type AdminRow struct {
	ID      uint64 `json:"id"`
	Guests  int    `json:"guests"`
	Name    string `json:"name"`
	Date    string `json:"date"` // DD-MM-YYYY
	Time    string `json:"time"` // HH:MM
	VenueID uint64 `json:"venue_id"`
}

// AdminView is the whole admin listing.
type AdminView struct {
	VenueID uint64     `json:"venue_id"`
	Rows    []AdminRow `json:"rows"`
	// Total is the ledger-wide booking counter, shown as a statistic only.
	Total uint64 `json:"total"`
}

// Admin serves the admin area for one venue.
type Admin struct {
	ledger   AdminLedger
	venueID  uint64
	capacity booking.Capacity
}

func NewAdmin(l AdminLedger, venueID uint64, capacity booking.Capacity) *Admin {
	return &Admin{ledger: l, venueID: venueID, capacity: capacity}
}

// List returns the venue's bookings in ledger order.  A failed fetch is
// logged and yields an empty listing, never an error.
func (a *Admin) List(ctx context.Context) AdminView {
	view := AdminView{VenueID: a.venueID, Rows: []AdminRow{}}
	records, err := a.ledger.ListBookingsForVenue(ctx, a.venueID)
	if err != nil {
		log.Printf("admin: list bookings: %v", err)
		return view
	}
	for _, b := range records {
		view.Rows = append(view.Rows, toRow(b))
	}
	if n, err := a.ledger.BookingCount(ctx); err == nil {
		view.Total = n
	} else {
		log.Printf("admin: booking count: %v", err)
	}
	return view
}

func toRow(b model.Booking) AdminRow {
	return AdminRow{
		ID:      b.ID,
		Guests:  b.Guests,
		Name:    b.Name,
		Date:    model.FormatDisplayDate(b.Date),
		Time:    b.Time.String(),
		VenueID: b.VenueID,
	}
}

// BookingEdit is a correction made by an admin.  Zero fields keep the
// stored value.
type BookingEdit struct {
	Guests int
	Name   string
	Date   time.Time
	Time   model.Timeslot
}

// Edit rewrites booking id with the fields set in e.  The capacity rule is
// not applied: admins may overbook deliberately.
func (a *Admin) Edit(ctx context.Context, id uint64, e BookingEdit) (AdminRow, error) {
	cur, err := a.ledger.Booking(ctx, id)
	if err != nil {
		return AdminRow{}, err
	}
	if e.Guests != 0 {
		if !a.capacity.ValidGuests(e.Guests) {
			return AdminRow{}, fmt.Errorf("%w: guests must be 1-%d", ErrInvalidInput, a.capacity.PerTableMax)
		}
		cur.Guests = e.Guests
	}
	if name := strings.TrimSpace(e.Name); name != "" {
		cur.Name = name
	}
	if !e.Date.IsZero() {
		cur.Date = model.Day(e.Date)
	}
	if e.Time != 0 {
		if !a.capacity.Offers(e.Time) {
			return AdminRow{}, fmt.Errorf("%w: %s is not a serving time", ErrInvalidInput, e.Time)
		}
		cur.Time = e.Time
	}
	if _, err := a.ledger.ChangeBooking(ctx, cur); err != nil {
		return AdminRow{}, err
	}
	return toRow(cur), nil
}

// Remove deletes booking id from the ledger.
func (a *Admin) Remove(ctx context.Context, id uint64) error {
	if id == 0 {
		return fmt.Errorf("%w: booking id required", ErrInvalidInput)
	}
	_, err := a.ledger.RemoveBooking(ctx, id)
	return err
}

// CreateVenue registers a restaurant and returns its id.
func (a *Admin) CreateVenue(ctx context.Context, name string) (uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	return a.ledger.CreateVenue(ctx, name)
}
