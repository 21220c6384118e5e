package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

const defaultConcurrency = 8

// Gateway is the single entry point to the restaurant contract.  It is
// constructed once at start-up, shared by every request and closed on
// shutdown.  Failures are logged and returned to the caller unchanged in
// meaning; nothing is retried.
type Gateway struct {
	backend     Backend
	concurrency int
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithConcurrency bounds how many records are resolved in parallel when
// listing bookings.
func WithConcurrency(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// NewGateway wraps a backend.  The gateway owns the backend from here on.
func NewGateway(b Backend, opts ...Option) *Gateway {
	g := &Gateway{backend: b, concurrency: defaultConcurrency}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Close releases the underlying connection.
func (g *Gateway) Close() { g.backend.Close() }

// CurrentAccount returns the first available signing identity.  A missing
// identity is not an error: ok is false and callers treat the ledger as not
// ready for writes.
func (g *Gateway) CurrentAccount(ctx context.Context) (common.Address, bool) {
	accounts, err := g.backend.Accounts(ctx)
	if err != nil {
		log.Printf("ledger: get accounts: %v", err)
		return common.Address{}, false
	}
	if len(accounts) == 0 {
		return common.Address{}, false
	}
	return accounts[0], true
}

// BookingCount returns the contract's global booking counter.  It counts
// every booking ever created on any venue and is only reported as a
// statistic; listing goes through BookingIDs.
func (g *Gateway) BookingCount(ctx context.Context) (uint64, error) {
	out, err := g.backend.Call(ctx, MethodBookingCount)
	if err != nil {
		log.Printf("ledger: booking count: %v", err)
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: bookingCount returned %d values", ErrUnexpectedResult, len(out))
	}
	return asUint64(out[0])
}

// BookingIDs lists the booking ids the contract indexes under a venue.
func (g *Gateway) BookingIDs(ctx context.Context, venueID uint64) ([]uint64, error) {
	out, err := g.backend.Call(ctx, MethodGetBookings, u256(venueID))
	if err != nil {
		log.Printf("ledger: get bookings for venue %d: %v", venueID, err)
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: getBookings returned %d values", ErrUnexpectedResult, len(out))
	}
	return asUint64s(out[0])
}

// Booking resolves one booking.  The contract answers unknown ids with a
// zeroed record, which is reported as ErrBookingNotFound.
func (g *Gateway) Booking(ctx context.Context, id uint64) (model.Booking, error) {
	out, err := g.backend.Call(ctx, MethodBookings, u256(id))
	if err != nil {
		log.Printf("ledger: get booking %d: %v", id, err)
		return model.Booking{}, err
	}
	if len(out) != 6 {
		return model.Booking{}, fmt.Errorf("%w: bookings returned %d values", ErrUnexpectedResult, len(out))
	}
	b, err := bookingFields(out[0], out[1], out[2], out[3], out[4], out[5])
	if err != nil {
		return model.Booking{}, err
	}
	if b.ID == 0 {
		return model.Booking{}, fmt.Errorf("%w: %d", ErrBookingNotFound, id)
	}
	return b, nil
}

// ListBookingsForVenue fetches the venue's id list and resolves every id,
// at most `concurrency` at a time.  The result keeps ledger order; ids whose
// record has been cleared or is malformed are skipped.
func (g *Gateway) ListBookingsForVenue(ctx context.Context, venueID uint64) ([]model.Booking, error) {
	ids, err := g.BookingIDs(ctx, venueID)
	if err != nil {
		return nil, err
	}
	resolved := make([]model.Booking, len(ids))
	found := make([]bool, len(ids))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, id := range ids {
		i, id := i, id
		eg.Go(func() error {
			b, err := g.Booking(ectx, id)
			if errors.Is(err, ErrBookingNotFound) {
				return nil
			}
			if errors.Is(err, ErrMalformedBooking) {
				log.Printf("ledger: skip booking %d: %v", id, err)
				return nil
			}
			if err != nil {
				return err
			}
			resolved[i], found[i] = b, true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.Booking, 0, len(ids))
	for i := range resolved {
		if found[i] {
			out = append(out, resolved[i])
		}
	}
	return out, nil
}

// Venue resolves a restaurant record.
func (g *Gateway) Venue(ctx context.Context, id uint64) (model.Venue, error) {
	out, err := g.backend.Call(ctx, MethodRestaurants, u256(id))
	if err != nil {
		log.Printf("ledger: get restaurant %d: %v", id, err)
		return model.Venue{}, err
	}
	if len(out) != 2 {
		return model.Venue{}, fmt.Errorf("%w: restaurants returned %d values", ErrUnexpectedResult, len(out))
	}
	vid, err := asUint64(out[0])
	if err != nil {
		return model.Venue{}, err
	}
	if vid == 0 {
		return model.Venue{}, fmt.Errorf("%w: %d", ErrVenueNotFound, id)
	}
	name, err := asString(out[1])
	if err != nil {
		return model.Venue{}, err
	}
	return model.Venue{ID: vid, Name: name}, nil
}

// CreateBooking submits createBooking and returns the record carried by the
// BookingCreated event.  A rejected submission yields *SubmissionError; a
// mined transaction without the event yields ErrBookingCreationFailed.
func (g *Gateway) CreateBooking(ctx context.Context, guests int, name string, date time.Time, slot model.Timeslot, venueID uint64) (model.Booking, error) {
	if guests < 1 {
		return model.Booking{}, fmt.Errorf("invalid guest count %d", guests)
	}
	rcpt, err := g.send(ctx, MethodCreateBooking,
		u256(uint64(guests)), name, unixDay(date), u256(uint64(slot)), u256(venueID))
	if err != nil {
		log.Printf("ledger: error creating booking: %v", err)
		return model.Booking{}, err
	}
	ev, ok := rcpt.Events[EventBookingCreated]
	if !ok {
		log.Printf("ledger: booking creation failed: tx %s emitted no %s", rcpt.TxHash.Hex(), EventBookingCreated)
		return model.Booking{}, ErrBookingCreationFailed
	}
	b, err := bookingFromEvent(ev)
	if err != nil {
		log.Printf("ledger: decode %s: %v", EventBookingCreated, err)
		return model.Booking{}, fmt.Errorf("%w: %v", ErrBookingCreationFailed, err)
	}
	log.Printf("ledger: booking %d created in tx %s", b.ID, rcpt.TxHash.Hex())
	return b, nil
}

// RemoveBooking submits removeBooking.  The contract reverts for unknown
// ids, which surfaces here as an error.
func (g *Gateway) RemoveBooking(ctx context.Context, id uint64) (bool, error) {
	if _, err := g.send(ctx, MethodRemoveBooking, u256(id)); err != nil {
		log.Printf("ledger: error removing booking %d: %v", id, err)
		return false, err
	}
	return true, nil
}

// ChangeBooking overwrites every editable field of an existing booking.
func (g *Gateway) ChangeBooking(ctx context.Context, b model.Booking) (bool, error) {
	if b.ID == 0 {
		return false, fmt.Errorf("%w: 0", ErrBookingNotFound)
	}
	_, err := g.send(ctx, MethodEditBooking,
		u256(b.ID), u256(uint64(b.Guests)), b.Name, unixDay(b.Date), u256(uint64(b.Time)))
	if err != nil {
		log.Printf("ledger: error editing booking %d: %v", b.ID, err)
		return false, err
	}
	return true, nil
}

// CreateVenue submits createRestaurant and returns the new id.
func (g *Gateway) CreateVenue(ctx context.Context, name string) (uint64, error) {
	rcpt, err := g.send(ctx, MethodCreateRestaurant, name)
	if err != nil {
		log.Printf("ledger: error creating restaurant: %v", err)
		return 0, err
	}
	ev, ok := rcpt.Events[EventRestaurantCreated]
	if !ok {
		return 0, ErrVenueCreationFailed
	}
	id, err := asUint64(ev["id"])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrVenueCreationFailed, err)
	}
	return id, nil
}

// send wraps backend errors in SubmissionError, except for the missing
// identity case which callers check for directly.
func (g *Gateway) send(ctx context.Context, method string, args ...any) (*Receipt, error) {
	ctx, span := otel.Tracer("ledger").Start(ctx, "ledger.send")
	span.SetAttributes(attribute.String("ledger.method", method))
	defer span.End()

	rcpt, err := g.backend.Send(ctx, method, args...)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrNoIdentity) {
			return nil, err
		}
		return nil, &SubmissionError{Method: method, Err: err}
	}
	return rcpt, nil
}
