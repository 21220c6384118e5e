package service

import (
	"context"
	"log"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/queue"
)

// EventBooking is the live message type for a new booking.
const EventBooking = "booking.created"

// BookingPublisher is satisfied by queue.Publisher.
type BookingPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// Broadcaster is satisfied by live.Hub.
type Broadcaster interface {
	Broadcast(typ string, venueID uint64, payload any)
}

// Events announces confirmed bookings.  Announcing never fails the booking
// it describes: broker errors are only logged.
type Events struct {
	publisher BookingPublisher
	hub       Broadcaster
	timeout   time.Duration
	now       func() time.Time
}

// NewEvents builds an announcer; either sink may be nil.
func NewEvents(p BookingPublisher, hub Broadcaster) *Events {
	return &Events{publisher: p, hub: hub, timeout: 5 * time.Second, now: time.Now}
}

// BookingCreated broadcasts b to live pages and publishes it to the broker.
// The publish runs detached from ctx so a client hanging up right after the
// booking does not lose the event.  The returned channel closes once the
// publish has finished.
func (e *Events) BookingCreated(ctx context.Context, b model.Booking, account string) <-chan struct{} {
	ev := queue.NewBookingCreatedEvent(b, account, e.now())
	if e.hub != nil {
		e.hub.Broadcast(EventBooking, b.VenueID, ev)
	}
	done := make(chan struct{})
	if e.publisher == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
		defer cancel()
		if err := e.publisher.PublishBookingCreated(pctx, ev); err != nil {
			log.Printf("events: publish booking %d: %v", b.ID, err)
		}
	}()
	return done
}
