// Package nav tracks which page a visitor is looking at.  It holds no
// domain data.
package nav

import "fmt"

// View names a page.
type View string

const (
	Landing View = "landing"
	Booking View = "booking"
	Admin   View = "admin"
	Contact View = "contact"
)

// ParseView validates a view name coming from a request.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case Landing, Booking, Admin, Contact:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Shell holds the page flags.  Booking takes over the whole page; admin and
// contact are panels on the landing page and showing admin hides contact.
type Shell struct {
	BookingOpen bool `json:"booking_open"`
	AdminOpen   bool `json:"admin_open"`
	ContactOpen bool `json:"contact_open"`
}

// Show switches to v.  Admin and contact behave as toggles, matching the
// buttons on the landing page.
func (s *Shell) Show(v View) {
	switch v {
	case Landing:
		s.Back()
	case Booking:
		*s = Shell{BookingOpen: true}
	case Admin:
		s.BookingOpen = false
		s.AdminOpen = !s.AdminOpen
		s.ContactOpen = false
	case Contact:
		// the contact button is hidden while the admin panel is open
		if s.AdminOpen || s.BookingOpen {
			return
		}
		s.ContactOpen = !s.ContactOpen
	}
}

// Back returns to the landing page.
func (s *Shell) Back() { *s = Shell{} }

// Current is the view that is visible.
func (s Shell) Current() View {
	switch {
	case s.BookingOpen:
		return Booking
	case s.AdminOpen:
		return Admin
	case s.ContactOpen:
		return Contact
	}
	return Landing
}
