package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/booking"
	"github.com/iliyamo/restaurant-booking/internal/middleware"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/nav"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

// VenueSource resolves the restaurant shown in the page header.
type VenueSource interface {
	Venue(ctx context.Context, id uint64) (model.Venue, error)
}

// PagesHandler renders the server side pages and moves the visitor between
// them.  Which page is visible lives in the session, so navigation is a
// POST followed by a redirect to "/".
type PagesHandler struct {
	Capacity    booking.Capacity
	Admin       *service.Admin
	Venues      VenueSource
	Accounts    AccountSource
	VenueID     uint64
	DefaultName string
	ReadTimeout time.Duration
}

type pageData struct {
	View      nav.View
	Shell     nav.Shell
	VenueName string
	Ready     bool
	Booking   bookingView
	Admin     *service.AdminView
	Today     string
}

// Index renders whatever view the session is on.
func (h *PagesHandler) Index(c echo.Context) error {
	s := middleware.CurrentSession(c)
	if s == nil {
		return errNoSession
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.ReadTimeout)
	defer cancel()

	data := pageData{
		View:      s.Nav.Current(),
		Shell:     s.Nav,
		VenueName: h.venueName(ctx),
		Booking:   viewOf(&s.Booking, h.Capacity),
		Today:     model.Day(time.Now()).Format("2006-01-02"),
	}
	switch data.View {
	case nav.Booking:
		_, data.Ready = h.Accounts.CurrentAccount(ctx)
	case nav.Admin:
		v := h.Admin.List(ctx)
		data.Admin = &v
	}
	return c.Render(http.StatusOK, "page", data)
}

func (h *PagesHandler) venueName(ctx context.Context) string {
	v, err := h.Venues.Venue(ctx, h.VenueID)
	if err != nil || v.Name == "" {
		if err != nil {
			log.Printf("pages: venue %d: %v", h.VenueID, err)
		}
		return h.DefaultName
	}
	return v.Name
}

// Show returns a handler that switches the session to view.
func (h *PagesHandler) Show(view nav.View) echo.HandlerFunc {
	return func(c echo.Context) error {
		s := middleware.CurrentSession(c)
		if s == nil {
			return errNoSession
		}
		s.Nav.Show(view)
		return c.Redirect(http.StatusSeeOther, "/")
	}
}

// Back returns to the landing page.  Leaving the booking page discards the
// form.
func (h *PagesHandler) Back(c echo.Context) error {
	s := middleware.CurrentSession(c)
	if s == nil {
		return errNoSession
	}
	back(s.Nav.BookingOpen, &s.Nav, &s.Booking)
	return c.Redirect(http.StatusSeeOther, "/")
}

func back(wasBooking bool, shell *nav.Shell, st *booking.State) {
	shell.Back()
	if wasBooking {
		*st = booking.NewState()
	}
}

type viewReq struct {
	View string `json:"view"`
}

type viewResp struct {
	View  nav.View  `json:"view"`
	Shell nav.Shell `json:"shell"`
}

// GetView reports the visible view.
func (h *PagesHandler) GetView(c echo.Context) error {
	s := middleware.CurrentSession(c)
	if s == nil {
		return errNoSession
	}
	return c.JSON(http.StatusOK, viewResp{View: s.Nav.Current(), Shell: s.Nav})
}

// SetView applies a navigation action; "landing" behaves like Back.
func (h *PagesHandler) SetView(c echo.Context) error {
	s := middleware.CurrentSession(c)
	if s == nil {
		return errNoSession
	}
	var req viewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	v, err := nav.ParseView(req.View)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if v == nav.Landing {
		back(s.Nav.BookingOpen, &s.Nav, &s.Booking)
	} else {
		s.Nav.Show(v)
	}
	return c.JSON(http.StatusOK, viewResp{View: s.Nav.Current(), Shell: s.Nav})
}
