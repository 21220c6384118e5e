package ledger

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

// asUint64 converts an ABI-decoded integer into a uint64.
func asUint64(v any) (uint64, error) {
	switch t := v.(type) {
	case *big.Int:
		if t == nil || t.Sign() < 0 || !t.IsUint64() {
			return 0, fmt.Errorf("%w: integer %v out of range", ErrUnexpectedResult, t)
		}
		return t.Uint64(), nil
	case uint64:
		return t, nil
	case uint32:
		return uint64(t), nil
	case uint8:
		return uint64(t), nil
	case int64:
		if t < 0 {
			return 0, fmt.Errorf("%w: negative integer %d", ErrUnexpectedResult, t)
		}
		return uint64(t), nil
	case int:
		if t < 0 {
			return 0, fmt.Errorf("%w: negative integer %d", ErrUnexpectedResult, t)
		}
		return uint64(t), nil
	}
	return 0, fmt.Errorf("%w: expected integer, got %T", ErrUnexpectedResult, v)
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected string, got %T", ErrUnexpectedResult, v)
	}
	return s, nil
}

func asUint64s(v any) ([]uint64, error) {
	switch t := v.(type) {
	case []*big.Int:
		out := make([]uint64, 0, len(t))
		for _, n := range t {
			u, err := asUint64(n)
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
		return out, nil
	case []uint64:
		return t, nil
	}
	return nil, fmt.Errorf("%w: expected integer list, got %T", ErrUnexpectedResult, v)
}

// maxUnixDay is 9999-12-31T23:59:59Z.
const maxUnixDay = 253402300799

func u256(n uint64) *big.Int { return new(big.Int).SetUint64(n) }

// bookingFields decodes the six booking fields in contract order:
// id, numberOfGuests, name, date, time, restaurantId.
func bookingFields(id, guests, name, date, slot, venue any) (model.Booking, error) {
	var (
		b   model.Booking
		err error
	)
	if b.ID, err = asUint64(id); err != nil {
		return b, err
	}
	g, err := asUint64(guests)
	if err != nil {
		return b, err
	}
	if g > math.MaxInt32 {
		return b, fmt.Errorf("%w: booking %d has %d guests", ErrMalformedBooking, b.ID, g)
	}
	b.Guests = int(g)
	if b.Name, err = asString(name); err != nil {
		return b, err
	}
	d, err := asUint64(date)
	if err != nil {
		return b, err
	}
	if d > maxUnixDay {
		return b, fmt.Errorf("%w: booking %d has date %d", ErrMalformedBooking, b.ID, d)
	}
	b.Date = model.DayFromUnix(int64(d))
	s, err := asUint64(slot)
	if err != nil {
		return b, err
	}
	if s/100 > 23 || s%100 > 59 {
		return b, fmt.Errorf("%w: booking %d has time %d", ErrMalformedBooking, b.ID, s)
	}
	b.Time = model.Timeslot(s)
	if b.VenueID, err = asUint64(venue); err != nil {
		return b, err
	}
	return b, nil
}

func bookingFromEvent(ev EventValues) (model.Booking, error) {
	return bookingFields(ev["id"], ev["numberOfGuests"], ev["name"], ev["date"], ev["time"], ev["restaurantId"])
}

func unixDay(t time.Time) *big.Int {
	return big.NewInt(model.Day(t).Unix())
}
