package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/booking"
	"github.com/iliyamo/restaurant-booking/internal/ledger"
	"github.com/iliyamo/restaurant-booking/internal/ledger/memledger"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/queue"
)

var capacity = booking.Capacity{PerTableMax: 6, Tables: 15, Slots: []model.Timeslot{1800, 2100}}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func newGateway(t *testing.T) (*ledger.Gateway, *memledger.Contract) {
	t.Helper()
	c := memledger.New()
	g := ledger.NewGateway(c)
	t.Cleanup(g.Close)
	ctx := context.Background()
	if _, err := g.CreateVenue(ctx, "The Restaurant"); err != nil {
		t.Fatalf("create venue: %v", err)
	}
	return g, c
}

func TestAdminList(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)
	ctx := context.Background()
	if _, err := g.CreateVenue(ctx, "Other"); err != nil {
		t.Fatalf("create venue: %v", err)
	}
	for _, v := range []uint64{1, 2, 1} {
		if _, err := g.CreateBooking(ctx, 2, "Ada", day(2025, 6, 14), 1800, v); err != nil {
			t.Fatalf("create booking: %v", err)
		}
	}

	view := NewAdmin(g, 1, capacity).List(ctx)
	if len(view.Rows) != 2 {
		t.Fatalf("expected 2 rows for venue 1, got %d", len(view.Rows))
	}
	if view.Rows[0].ID != 1 || view.Rows[1].ID != 3 {
		t.Fatalf("expected ledger order [1 3], got %+v", view.Rows)
	}
	if view.Rows[0].Date != "14-06-2025" || view.Rows[0].Time != "18:00" {
		t.Fatalf("unexpected display fields %+v", view.Rows[0])
	}
	if view.Total != 3 {
		t.Fatalf("expected global count 3, got %d", view.Total)
	}
}

type failingLedger struct{ AdminLedger }

func (failingLedger) ListBookingsForVenue(context.Context, uint64) ([]model.Booking, error) {
	return nil, errors.New("node down")
}

func TestAdminListFailureIsEmpty(t *testing.T) {
	t.Parallel()

	view := NewAdmin(failingLedger{}, 1, capacity).List(context.Background())
	if view.Rows == nil || len(view.Rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %#v", view.Rows)
	}
}

func TestAdminEditAndRemove(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)
	ctx := context.Background()
	b, err := g.CreateBooking(ctx, 2, "Ada", day(2025, 6, 14), 1800, 1)
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	admin := NewAdmin(g, 1, capacity)

	row, err := admin.Edit(ctx, b.ID, BookingEdit{Guests: 5, Time: 2100})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if row.Guests != 5 || row.Time != "21:00" || row.Name != "Ada" {
		t.Fatalf("unexpected row %+v", row)
	}
	stored, err := g.Booking(ctx, b.ID)
	if err != nil || stored.Guests != 5 || stored.Time != 2100 {
		t.Fatalf("edit not stored: %+v %v", stored, err)
	}

	if _, err := admin.Edit(ctx, b.ID, BookingEdit{Guests: 7}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := admin.Edit(ctx, b.ID, BookingEdit{Time: 1930}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if err := admin.Remove(ctx, b.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(admin.List(ctx).Rows) != 0 {
		t.Fatalf("expected removed booking to disappear")
	}
	if err := admin.Remove(ctx, 99); err == nil {
		t.Fatalf("expected removing an unknown id to fail")
	}
}

func TestAdminCreateVenue(t *testing.T) {
	t.Parallel()

	g, _ := newGateway(t)
	admin := NewAdmin(g, 1, capacity)
	if _, err := admin.CreateVenue(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	id, err := admin.CreateVenue(context.Background(), "Second Room")
	if err != nil || id != 2 {
		t.Fatalf("expected venue 2, got %d (%v)", id, err)
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingCreatedEvent
	err    error
}

func (p *recordingPublisher) PublishBookingCreated(_ context.Context, ev queue.BookingCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type recordingHub struct {
	types  []string
	venues []uint64
}

func (h *recordingHub) Broadcast(typ string, venueID uint64, _ any) {
	h.types = append(h.types, typ)
	h.venues = append(h.venues, venueID)
}

func TestEventsBookingCreated(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{err: errors.New("broker down")}
	hub := &recordingHub{}
	ev := NewEvents(pub, hub)

	ctx, cancel := context.WithCancel(context.Background())
	b := model.Booking{ID: 4, Guests: 2, Name: "Ada", Date: day(2025, 6, 14), Time: 1800, VenueID: 1}
	done := ev.BookingCreated(ctx, b, "0xabc")
	cancel() // the publish must survive the request going away
	<-done

	if len(hub.types) != 1 || hub.types[0] != EventBooking || hub.venues[0] != 1 {
		t.Fatalf("unexpected broadcasts %v %v", hub.types, hub.venues)
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.events) != 1 || pub.events[0].BookingID != 4 || pub.events[0].Account != "0xabc" {
		t.Fatalf("unexpected published events %+v", pub.events)
	}
}

func TestEventsWithoutSinks(t *testing.T) {
	t.Parallel()

	<-NewEvents(nil, nil).BookingCreated(context.Background(), model.Booking{ID: 1}, "")
}
