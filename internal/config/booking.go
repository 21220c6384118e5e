package config

import (
	"log"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

// BookingConfig holds the dining room limits used by the booking form.
type BookingConfig struct {
	PerTableMax int              // largest party one table takes
	Tables      int              // number of tables
	Timeslots   []model.Timeslot // serving times offered each day
	VenueName   string           // shown when the ledger cannot name the venue
}

// LoadBookingConfig reads the capacity settings.  Defaults are 15 tables of
// six and two sittings, 18:00 and 21:00.
func LoadBookingConfig() BookingConfig {
	raw := envStr("BOOKING_TIMESLOTS", "18:00,21:00")
	slots, err := model.ParseTimeslots(raw)
	if err != nil || len(slots) == 0 {
		log.Printf("config: invalid BOOKING_TIMESLOTS %q, using defaults", raw)
		slots = []model.Timeslot{1800, 2100}
	}
	cfg := BookingConfig{
		PerTableMax: envInt("BOOKING_MAX_GUESTS_PER_TABLE", 6),
		Tables:      envInt("BOOKING_TOTAL_TABLES", 15),
		Timeslots:   slots,
		VenueName:   envStr("VENUE_NAME", "Horn of Spice Delights"),
	}
	if cfg.PerTableMax < 1 {
		cfg.PerTableMax = 1
	}
	if cfg.Tables < 1 {
		cfg.Tables = 1
	}
	return cfg
}
