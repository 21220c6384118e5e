package web

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iliyamo/restaurant-booking/internal/model"
)

type bookingData struct {
	Date, Name, Message string
	Guests, MaxGuests   int
	Consent             bool
	Status              string
	Slots               []model.Timeslot
	Selected            *model.Timeslot
	Booked              *model.Booking
}

type adminData struct {
	Rows []struct {
		ID      uint64
		Guests  int
		Name    string
		Date    string
		Time    string
		VenueID uint64
	}
	Total uint64
}

type page struct {
	View      string
	Shell     struct{ AdminOpen bool }
	VenueName string
	Ready     bool
	Today     string
	Booking   bookingData
	Admin     *adminData
}

func render(t *testing.T, data page) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewRenderer().Render(&buf, "page", data, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestRenderLanding(t *testing.T) {
	t.Parallel()

	out := render(t, page{View: "landing", VenueName: "Horn of Spice Delights"})
	for _, want := range []string{"Book Now", "Admin Mode", "Contact Us", "Horn of Spice Delights"} {
		if !strings.Contains(out, want) {
			t.Fatalf("landing page missing %q", want)
		}
	}
}

func TestRenderBookingSlots(t *testing.T) {
	t.Parallel()

	sel := model.Timeslot(2100)
	out := render(t, page{View: "booking", Ready: true, Booking: bookingData{
		Date: "2025-06-14", Guests: 2, MaxGuests: 6, Status: "timeSelected",
		Slots: []model.Timeslot{1800, 2100}, Selected: &sel,
	}})
	for _, want := range []string{`value="18:00"`, "Selected Timeslot: 21:00", `formaction="/v1/booking/submit"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("booking page missing %q", want)
		}
	}
	if strings.Contains(out, "cannot be submitted") {
		t.Fatalf("ready ledger should not show the warning")
	}
}

func TestRenderFullAndError(t *testing.T) {
	t.Parallel()

	out := render(t, page{View: "booking", Booking: bookingData{Status: "full", MaxGuests: 6}})
	if !strings.Contains(out, "Fully booked") {
		t.Fatalf("expected fully booked notice")
	}
	out = render(t, page{View: "booking", Booking: bookingData{Status: "error", Message: "Please agree to the GDPR terms and conditions."}})
	if !strings.Contains(out, "Please agree to the GDPR terms and conditions.") {
		t.Fatalf("expected error message")
	}
}
