package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

func TestNewBookingCreatedEvent(t *testing.T) {
	t.Parallel()

	b := model.Booking{ID: 3, Guests: 4, Name: "Ada", Date: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), Time: 1800, VenueID: 1}
	ev := NewBookingCreatedEvent(b, "0xabc", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	if ev.Date != "2025-06-14" || ev.Time != "18:00" {
		t.Fatalf("unexpected date/time %s %s", ev.Date, ev.Time)
	}
	if ev.CreatedAt != "2025-06-01T12:00:00Z" {
		t.Fatalf("unexpected created_at %s", ev.CreatedAt)
	}
}

func TestHandleMessage(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "logs")
	c := Consumer{LogDir: dir}

	body := `{"booking_id":3,"venue_id":1,"guests":4,"name":"Ada","date":"2025-06-14","time":"18:00","created_at":"2025-06-01T12:00:00Z"}`
	if err := c.handleMessage([]byte(body)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := c.handleMessage([]byte(body)); err != nil {
		t.Fatalf("handle again: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "booking.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "booking_id=3") || !strings.Contains(lines[0], `name="Ada"`) {
		t.Fatalf("unexpected line %q", lines[0])
	}

	for name, bad := range map[string]string{
		"not json": "{",
		"no id":    `{"guests":2}`,
	} {
		if err := c.handleMessage([]byte(bad)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
