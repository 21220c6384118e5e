package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

var (
	// ErrValidation marks input the form rejects before any ledger call.
	ErrValidation = errors.New("invalid booking input")
	// ErrSlotFull means the chosen slot cannot take the party.
	ErrSlotFull = errors.New("timeslot full")
	// ErrNotReady means no signing identity is connected.
	ErrNotReady = errors.New("ledger not ready")
)

const (
	msgConsent  = "Please agree to the GDPR terms and conditions."
	msgSlotFull = "The maximum guests limit for this timeslot has been reached."
	msgNotReady = "No account is connected, bookings cannot be submitted right now."
	msgLoad     = "Could not load bookings for the selected date."
	msgBooked   = "Booking created successfully!"
)

// Ledger is the part of the contract gateway the booking form needs.
type Ledger interface {
	CurrentAccount(ctx context.Context) (common.Address, bool)
	ListBookingsForVenue(ctx context.Context, venueID uint64) ([]model.Booking, error)
	CreateBooking(ctx context.Context, guests int, name string, date time.Time, slot model.Timeslot, venueID uint64) (model.Booking, error)
}

// Locker serialises writes for one key.  The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Flow drives a State through the booking steps for one venue.  A Flow is
// safe for concurrent use; a State is not and must be guarded by the caller.
type Flow struct {
	ledger   Ledger
	capacity Capacity
	venueID  uint64
	locker   Locker
}

// NewFlow builds a Flow.  locker may be nil, in which case writes for the
// same slot are not serialised by this process.
func NewFlow(l Ledger, capacity Capacity, venueID uint64, locker Locker) *Flow {
	if l == nil {
		panic("nil ledger passed to NewFlow")
	}
	return &Flow{ledger: l, capacity: capacity, venueID: venueID, locker: locker}
}

// Capacity exposes the venue limits the flow checks against.
func (f *Flow) Capacity() Capacity { return f.capacity }

// VenueID is the venue every booking goes to.
func (f *Flow) VenueID() uint64 { return f.venueID }

// SelectDate picks a date and loads the venue's bookings for it.
func (f *Flow) SelectDate(ctx context.Context, st *State, date time.Time) error {
	gen := BeginDateChange(st, date)
	records, err := f.ledger.ListBookingsForVenue(ctx, f.venueID)
	if err != nil {
		log.Printf("booking: load snapshot for %s: %v", model.Day(date).Format("2006-01-02"), err)
		if st.Generation == gen {
			st.Snapshot = nil
			st.fail(msgLoad)
		}
		return err
	}
	ApplySnapshot(st, gen, records)
	return nil
}

// BeginDateChange records a new date and returns the generation the
// snapshot fetched for it must carry.
func BeginDateChange(st *State, date time.Time) uint64 {
	st.Generation++
	st.Date = model.Day(date)
	st.Slots = nil
	st.Selected = nil
	st.Message = ""
	st.Status = StatusIdle
	return st.Generation
}

// ApplySnapshot stores the records for the state's current date.  A
// snapshot from a superseded date selection is dropped and false returned.
func ApplySnapshot(st *State, gen uint64, records []model.Booking) bool {
	if gen != st.Generation {
		return false
	}
	st.Snapshot = forDate(records, st.Date)
	st.Loaded = gen
	return true
}

// SetGuests records the party size; it is validated on check and submit.
func (f *Flow) SetGuests(st *State, guests int) { st.Guests = guests }

// SetName records the name the table is booked under.
func (f *Flow) SetName(st *State, name string) { st.Name = name }

// SetConsent records the GDPR checkbox.
func (f *Flow) SetConsent(st *State, consent bool) { st.Consent = consent }

// CheckAvailability computes which slots can take the party using the
// snapshot already loaded.  It never calls the ledger, so running it twice
// on the same state gives the same answer.
func (f *Flow) CheckAvailability(st *State) error {
	st.Status = StatusChecking
	st.Message = ""
	if !st.HasDate() || !f.capacity.ValidGuests(st.Guests) {
		msg := fmt.Sprintf("Please select a valid date and number of guests (1-%d).", f.capacity.PerTableMax)
		st.Slots = nil
		st.fail(msg)
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	st.Slots = f.capacity.Available(st.Snapshot, st.Date, st.Guests)
	if st.Selected != nil && !containsSlot(st.Slots, *st.Selected) {
		st.Selected = nil
	}
	if len(st.Slots) == 0 {
		st.Status = StatusFull
		return nil
	}
	st.Status = StatusAvailable
	return nil
}

// CheckSlot answers availability for one slot without touching the state.
func (f *Flow) CheckSlot(st *State, slot model.Timeslot) Status {
	if !f.capacity.Offers(slot) || !f.capacity.Fits(st.Snapshot, st.Date, slot, st.Guests) {
		return StatusFull
	}
	return StatusAvailable
}

// SelectTime picks one of the slots the last check offered.
func (f *Flow) SelectTime(st *State, slot model.Timeslot) error {
	if st.Status != StatusAvailable && st.Status != StatusTimeSelected {
		return fmt.Errorf("%w: check availability before choosing a time", ErrValidation)
	}
	if !containsSlot(st.Slots, slot) {
		return fmt.Errorf("%w: %s is not available", ErrValidation, slot)
	}
	st.Selected = &slot
	st.Status = StatusTimeSelected
	st.Message = ""
	return nil
}

// Submit books the selected slot.  The check against the cached snapshot
// is only a pre-flight: under the slot lock a fresh snapshot is read and
// checked again right before the write.  On success the created record is
// appended to the snapshot; on any failure the snapshot keeps no trace of
// the attempt.
func (f *Flow) Submit(ctx context.Context, st *State) (model.Booking, error) {
	if !st.Consent {
		st.fail(msgConsent)
		return model.Booking{}, fmt.Errorf("%w: %s", ErrValidation, msgConsent)
	}
	if st.Selected == nil || !f.capacity.Offers(*st.Selected) || !f.capacity.ValidGuests(st.Guests) || !st.HasDate() {
		msg := fmt.Sprintf("Please select a valid time and number of guests (1-%d).", f.capacity.PerTableMax)
		st.fail(msg)
		return model.Booking{}, fmt.Errorf("%w: %s", ErrValidation, msg)
	}
	slot := *st.Selected
	if !f.capacity.Fits(st.Snapshot, st.Date, slot, st.Guests) {
		st.fail(msgSlotFull)
		return model.Booking{}, ErrSlotFull
	}

	account, ok := f.ledger.CurrentAccount(ctx)
	if !ok {
		st.fail(msgNotReady)
		return model.Booking{}, ErrNotReady
	}
	name := st.Name
	if name == "" {
		name = account.Hex()
	}

	st.Status = StatusSubmitting
	st.Message = ""
	if f.locker != nil {
		unlock, err := f.locker.Lock(ctx, f.slotKey(st.Date, slot))
		if err != nil {
			st.fail(err.Error())
			return model.Booking{}, err
		}
		defer unlock()
	}

	fresh, err := f.ledger.ListBookingsForVenue(ctx, f.venueID)
	if err != nil {
		st.fail(err.Error())
		return model.Booking{}, err
	}
	st.Snapshot = forDate(fresh, st.Date)
	st.Loaded = st.Generation
	if !f.capacity.Fits(st.Snapshot, st.Date, slot, st.Guests) {
		st.Slots = f.capacity.Available(st.Snapshot, st.Date, st.Guests)
		st.fail(msgSlotFull)
		return model.Booking{}, ErrSlotFull
	}

	created, err := f.ledger.CreateBooking(ctx, st.Guests, name, st.Date, slot, f.venueID)
	if err != nil {
		log.Printf("booking: create failed: %v", err)
		st.fail(err.Error())
		return model.Booking{}, err
	}
	st.Snapshot = append(st.Snapshot, created)
	st.Booked = &created
	st.Status = StatusBooked
	st.Message = msgBooked
	return created, nil
}

func (f *Flow) slotKey(date time.Time, slot model.Timeslot) string {
	return fmt.Sprintf("slot:%d:%s:%04d", f.venueID, model.Day(date).Format("2006-01-02"), int(slot))
}

func forDate(records []model.Booking, date time.Time) []model.Booking {
	day := model.Day(date)
	out := make([]model.Booking, 0, len(records))
	for _, b := range records {
		if b.Date.Equal(day) {
			out = append(out, b)
		}
	}
	return out
}

func containsSlot(slots []model.Timeslot, slot model.Timeslot) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
