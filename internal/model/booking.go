package model

import "time"

// Booking is a table reservation as stored on the ledger contract.  The
// service never mutates a booking in place: an edit is a full overwrite
// request sent to the contract and a removal is a delete request.
//
// Fields:
//  ID      – identifier assigned by the contract (never zero for a stored booking).
//  Guests  – number of guests at the table.
//  Name    – name the table is booked under.
//  Date    – calendar day of the visit, UTC midnight.
//  Time    – serving slot.
//  VenueID – restaurant the booking belongs to.
type Booking struct {
	ID      uint64    `json:"id"`
	Guests  int       `json:"guests"`
	Name    string    `json:"name"`
	Date    time.Time `json:"date"`
	Time    Timeslot  `json:"time"`
	VenueID uint64    `json:"venue_id"`
}

// Venue is a restaurant known to the contract.
//
// Fields:
//  ID   – identifier assigned by the contract.
//  Name – display name.
type Venue struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Day truncates t to the UTC calendar day.  Booking dates are compared by
// day, so every date entering the system goes through Day first.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayFromUnix converts a ledger timestamp (seconds since epoch) to a day.
func DayFromUnix(sec int64) time.Time {
	return Day(time.Unix(sec, 0))
}

// ParseDay parses a YYYY-MM-DD form value into a day.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// FormatDisplayDate renders a day as DD-MM-YYYY for the admin listing.
func FormatDisplayDate(t time.Time) string {
	return t.UTC().Format("02-01-2006")
}
