package ledger_test

import (
	"context"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/ledger"
	"github.com/iliyamo/restaurant-booking/internal/ledger/memledger"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

var visit = time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)

func newGateway(t *testing.T) (*ledger.Gateway, *memledger.Contract) {
	t.Helper()
	c := memledger.New()
	g := ledger.NewGateway(c, ledger.WithConcurrency(3))
	t.Cleanup(g.Close)
	return g, c
}

func TestGateway_CurrentAccount(t *testing.T) {
	t.Parallel()

	t.Run("returns first account", func(t *testing.T) {
		g, _ := newGateway(t)
		if _, ok := g.CurrentAccount(context.Background()); !ok {
			t.Fatalf("expected an identity")
		}
	})

	t.Run("absent identity is not ready", func(t *testing.T) {
		g := ledger.NewGateway(memledger.New().WithoutAccount())
		if _, ok := g.CurrentAccount(context.Background()); ok {
			t.Fatalf("expected no identity")
		}
		_, err := g.CreateBooking(context.Background(), 2, "Ada", visit, 1800, 1)
		if !errors.Is(err, ledger.ErrNoIdentity) {
			t.Fatalf("expected ErrNoIdentity, got %v", err)
		}
	})
}

func TestGateway_CreateBooking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns event values", func(t *testing.T) {
		g, _ := newGateway(t)
		b, err := g.CreateBooking(ctx, 4, "Ada", visit.Add(19*time.Hour), 1800, 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		want := model.Booking{ID: 1, Guests: 4, Name: "Ada", Date: visit, Time: 1800, VenueID: 1}
		if b != want {
			t.Fatalf("expected %+v, got %+v", want, b)
		}
	})

	t.Run("missing event is a creation failure", func(t *testing.T) {
		g, c := newGateway(t)
		c.SuppressEvent(ledger.EventBookingCreated)
		_, err := g.CreateBooking(ctx, 2, "Ada", visit, 1800, 1)
		if !errors.Is(err, ledger.ErrBookingCreationFailed) {
			t.Fatalf("expected ErrBookingCreationFailed, got %v", err)
		}
		if err.Error() != "Booking creation failed" {
			t.Fatalf("unexpected message %q", err.Error())
		}
		var sub *ledger.SubmissionError
		if errors.As(err, &sub) {
			t.Fatalf("creation failure must not look like a submission failure")
		}
	})

	t.Run("rejected submission is a submission error", func(t *testing.T) {
		g, c := newGateway(t)
		c.FailSend(ledger.MethodCreateBooking, errors.New("insufficient funds for gas"))
		_, err := g.CreateBooking(ctx, 2, "Ada", visit, 1800, 1)
		var sub *ledger.SubmissionError
		if !errors.As(err, &sub) {
			t.Fatalf("expected SubmissionError, got %v", err)
		}
		if sub.Method != ledger.MethodCreateBooking {
			t.Fatalf("expected method %s, got %s", ledger.MethodCreateBooking, sub.Method)
		}
	})
}

func TestGateway_ListBookingsForVenue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, c := newGateway(t)

	for i := 0; i < 10; i++ {
		venue := uint64(1)
		if i%3 == 0 {
			venue = 2
		}
		if _, err := g.CreateBooking(ctx, i+1, "guest", visit, 1800, venue); err != nil {
			t.Fatalf("seed booking %d: %v", i, err)
		}
	}
	if _, err := g.RemoveBooking(ctx, 2); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got, err := g.ListBookingsForVenue(ctx, 1)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	wantIDs := []uint64{3, 5, 6, 8, 9}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d bookings, got %d", len(wantIDs), len(got))
	}
	for i, b := range got {
		if b.ID != wantIDs[i] {
			t.Fatalf("expected ledger order %v, got id %d at %d", wantIDs, b.ID, i)
		}
		if b.VenueID != 1 {
			t.Fatalf("expected venue 1, got %d", b.VenueID)
		}
	}

	count, err := g.BookingCount(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected global count 10, got %d", count)
	}
	if c.Calls() == 0 {
		t.Fatalf("expected reads to reach the contract")
	}
}

func TestGateway_ListSkipsMalformedBookings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, c := newGateway(t)

	if _, err := g.CreateBooking(ctx, 4, "Ada", visit, 1800, 1); err != nil {
		t.Fatalf("seed booking: %v", err)
	}
	day := big.NewInt(visit.Unix())
	raw := []struct {
		name               string
		guests, date, slot *big.Int
	}{
		{"huge party", new(big.Int).SetUint64(math.MaxUint64), day, big.NewInt(1800)},
		{"party past int32", big.NewInt(math.MaxInt32 + 1), day, big.NewInt(1800)},
		{"no such hour", big.NewInt(2), day, big.NewInt(2500)},
		{"no such minute", big.NewInt(2), day, big.NewInt(1875)},
		{"date past year 9999", big.NewInt(2), new(big.Int).SetUint64(math.MaxUint64), big.NewInt(1800)},
	}
	for _, r := range raw {
		if _, err := c.Send(ctx, ledger.MethodCreateBooking, r.guests, r.name, r.date, r.slot, big.NewInt(1)); err != nil {
			t.Fatalf("raw write %q: %v", r.name, err)
		}
	}

	got, err := g.ListBookingsForVenue(ctx, 1)
	if err != nil {
		t.Fatalf("expected malformed records to be skipped, got %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ada" || got[0].Guests != 4 {
		t.Fatalf("expected only the well-formed booking, got %+v", got)
	}
	if _, err := g.Booking(ctx, 2); !errors.Is(err, ledger.ErrMalformedBooking) {
		t.Fatalf("expected ErrMalformedBooking, got %v", err)
	}
}

func TestGateway_RemoveBooking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGateway(t)

	if _, err := g.CreateBooking(ctx, 2, "Ada", visit, 2100, 1); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ok, err := g.RemoveBooking(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("expected removal, got ok=%v err=%v", ok, err)
	}

	ok, err = g.RemoveBooking(ctx, 42)
	if err == nil || ok {
		t.Fatalf("expected unknown id to raise, got ok=%v", ok)
	}
	if !errors.Is(err, memledger.ErrRevert) {
		t.Fatalf("expected revert cause, got %v", err)
	}
	if _, err := g.Booking(ctx, 1); !errors.Is(err, ledger.ErrBookingNotFound) {
		t.Fatalf("expected removed booking to be gone, got %v", err)
	}
}

func TestGateway_ChangeBooking(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	g, _ := newGateway(t)

	b, err := g.CreateBooking(ctx, 2, "Ada", visit, 1800, 1)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	b.Guests, b.Name, b.Time = 5, "Grace", 2100
	if ok, err := g.ChangeBooking(ctx, b); err != nil || !ok {
		t.Fatalf("expected change, got ok=%v err=%v", ok, err)
	}
	got, err := g.Booking(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != b {
		t.Fatalf("expected %+v, got %+v", b, got)
	}

	if _, err := g.ChangeBooking(ctx, model.Booking{ID: 99, Guests: 1, Date: visit, Time: 1800}); err == nil {
		t.Fatalf("expected unknown booking edit to raise")
	}
}

func TestGateway_CreateVenue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g, c := newGateway(t)
	id, err := g.CreateVenue(ctx, "Horn of Spice Delights")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
	v, err := g.Venue(ctx, id)
	if err != nil || v.Name != "Horn of Spice Delights" {
		t.Fatalf("unexpected venue %+v err=%v", v, err)
	}
	if _, err := g.Venue(ctx, 7); !errors.Is(err, ledger.ErrVenueNotFound) {
		t.Fatalf("expected ErrVenueNotFound, got %v", err)
	}

	c.SuppressEvent(ledger.EventRestaurantCreated)
	if _, err := g.CreateVenue(ctx, "Second"); !errors.Is(err, ledger.ErrVenueCreationFailed) {
		t.Fatalf("expected ErrVenueCreationFailed, got %v", err)
	}
}
