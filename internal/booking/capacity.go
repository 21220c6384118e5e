package booking

import (
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

// Capacity describes how many guests one venue can seat per serving slot.
type Capacity struct {
	PerTableMax int              // largest party a single table takes
	Tables      int              // tables in the dining room
	Slots       []model.Timeslot // serving times offered every day
}

// PerSlot is the guest ceiling for one (date, slot).
func (c Capacity) PerSlot() int { return c.PerTableMax * c.Tables }

// ValidGuests reports whether a party size can be booked at all.
func (c Capacity) ValidGuests(g int) bool { return g >= 1 && g <= c.PerTableMax }

// Offers reports whether slot is one of the venue's serving times.
func (c Capacity) Offers(slot model.Timeslot) bool {
	for _, s := range c.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// GuestsAt sums the guests already booked for a date and slot.
func GuestsAt(snapshot []model.Booking, date time.Time, slot model.Timeslot) int {
	day := model.Day(date)
	total := 0
	for _, b := range snapshot {
		if b.Time == slot && b.Date.Equal(day) {
			total += b.Guests
		}
	}
	return total
}

// Fits reports whether guests more people fit into the slot.
func (c Capacity) Fits(snapshot []model.Booking, date time.Time, slot model.Timeslot, guests int) bool {
	return GuestsAt(snapshot, date, slot)+guests <= c.PerSlot()
}

// Available returns the slots, in configured order, that can still take guests.
func (c Capacity) Available(snapshot []model.Booking, date time.Time, guests int) []model.Timeslot {
	var out []model.Timeslot
	for _, s := range c.Slots {
		if c.Fits(snapshot, date, s, guests) {
			out = append(out, s)
		}
	}
	return out
}
