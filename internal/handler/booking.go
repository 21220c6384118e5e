package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/booking"
	"github.com/iliyamo/restaurant-booking/internal/ledger"
	"github.com/iliyamo/restaurant-booking/internal/middleware"
	"github.com/iliyamo/restaurant-booking/internal/model"
)

// BookingAnnouncer is implemented by service.Events.
type BookingAnnouncer interface {
	BookingCreated(ctx context.Context, b model.Booking, account string) <-chan struct{}
}

// BookingHandler drives the booking form held in the visitor's session.
// Every endpoint accepts JSON or a urlencoded form; form posts come from
// the HTML page and are answered with a redirect back to it.
type BookingHandler struct {
	Flow         *booking.Flow
	Accounts     AccountSource
	Events       BookingAnnouncer
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Invalidate drops cached admin listings after a booking; may be nil.
	Invalidate func(ctx context.Context)
}

func NewBookingHandler(f *booking.Flow, accounts AccountSource, events BookingAnnouncer, read, write time.Duration, invalidate func(ctx context.Context)) *BookingHandler {
	return &BookingHandler{Flow: f, Accounts: accounts, Events: events, ReadTimeout: read, WriteTimeout: write, Invalidate: invalidate}
}

// bookingReq carries every field of the form.  Endpoints apply the fields
// that belong to their step.
type bookingReq struct {
	Date    string         `json:"date" form:"date"`
	Guests  int            `json:"guests" form:"guests"`
	Name    string         `json:"name" form:"name"`
	Consent bool           `json:"consent" form:"consent"`
	Time    model.Timeslot `json:"time" form:"time"`
}

type bookingView struct {
	Status    booking.Status   `json:"status"`
	Date      string           `json:"date,omitempty"`
	Guests    int              `json:"guests"`
	Name      string           `json:"name,omitempty"`
	Consent   bool             `json:"consent"`
	Slots     []model.Timeslot `json:"slots"`
	Selected  *model.Timeslot  `json:"selected,omitempty"`
	Message   string           `json:"message,omitempty"`
	Booked    *model.Booking   `json:"booked,omitempty"`
	MaxGuests int              `json:"max_guests"`
	Timeslots []model.Timeslot `json:"timeslots"`
}

func (h *BookingHandler) view(st *booking.State) bookingView {
	return viewOf(st, h.Flow.Capacity())
}

func viewOf(st *booking.State, capacity booking.Capacity) bookingView {
	v := bookingView{
		Status:    st.Status,
		Guests:    st.Guests,
		Name:      st.Name,
		Consent:   st.Consent,
		Slots:     st.Slots,
		Selected:  st.Selected,
		Message:   st.Message,
		Booked:    st.Booked,
		MaxGuests: capacity.PerTableMax,
		Timeslots: capacity.Slots,
	}
	if v.Slots == nil {
		v.Slots = []model.Timeslot{}
	}
	if st.HasDate() {
		v.Date = st.Date.Format("2006-01-02")
	}
	return v
}

func isForm(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

// reply answers with the form state, or sends an HTML client back to the
// page, which renders the same state.
func (h *BookingHandler) reply(c echo.Context, status int, st *booking.State) error {
	if isForm(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.JSON(status, h.view(st))
}

// errorStatus maps a flow error onto an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, booking.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrSlotFull):
		return http.StatusConflict
	case errors.Is(err, booking.ErrNotReady), errors.Is(err, ledger.ErrNoIdentity):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	// submission failures and missing confirmation events
	return http.StatusBadGateway
}

var errNoSession = echo.NewHTTPError(http.StatusInternalServerError, "no session")

func bookingState(c echo.Context) *booking.State {
	s := middleware.CurrentSession(c)
	if s == nil {
		return nil
	}
	return &s.Booking
}

// Get returns the form state.
func (h *BookingHandler) Get(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	return c.JSON(http.StatusOK, h.view(st))
}

// SelectDate picks the date and loads that day's bookings.
func (h *BookingHandler) SelectDate(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	day, err := model.ParseDay(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	if err := h.loadDate(c, st, day); err != nil {
		return h.fail(c, st, err)
	}
	return h.reply(c, http.StatusOK, st)
}

func (h *BookingHandler) loadDate(c echo.Context, st *booking.State, day time.Time) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.ReadTimeout)
	defer cancel()
	return h.Flow.SelectDate(ctx, st, day)
}

// SetGuests records the party size.
func (h *BookingHandler) SetGuests(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	h.Flow.SetGuests(st, req.Guests)
	return h.reply(c, http.StatusOK, st)
}

// SetName records the name the table is booked under.
func (h *BookingHandler) SetName(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	h.Flow.SetName(st, strings.TrimSpace(req.Name))
	return h.reply(c, http.StatusOK, st)
}

// SetConsent records the GDPR checkbox.
func (h *BookingHandler) SetConsent(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	h.Flow.SetConsent(st, req.Consent)
	return h.reply(c, http.StatusOK, st)
}

// Check computes the available slots for the date and party size in the
// request.  The day's bookings are (re)loaded when the date changes or no
// snapshot has been loaded yet.
func (h *BookingHandler) Check(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	h.Flow.SetGuests(st, req.Guests)
	if isForm(c) {
		h.Flow.SetName(st, strings.TrimSpace(req.Name))
		h.Flow.SetConsent(st, req.Consent)
	}
	if req.Date != "" {
		day, err := model.ParseDay(req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
		if !day.Equal(st.Date) || !st.HasSnapshot() {
			if err := h.loadDate(c, st, day); err != nil {
				return h.fail(c, st, err)
			}
		}
	}
	if err := h.Flow.CheckAvailability(st); err != nil {
		return h.fail(c, st, err)
	}
	return h.reply(c, http.StatusOK, st)
}

// Slot answers whether one slot can take the party, without changing the
// form.
func (h *BookingHandler) Slot(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	slot, err := model.ParseTimeslot(c.Param("time"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
	}
	return c.JSON(http.StatusOK, echo.Map{"time": slot, "status": h.Flow.CheckSlot(st, slot)})
}

// SelectTime picks one of the offered slots.
func (h *BookingHandler) SelectTime(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if isForm(c) {
		h.Flow.SetName(st, strings.TrimSpace(req.Name))
		h.Flow.SetConsent(st, req.Consent)
	}
	if err := h.Flow.SelectTime(st, req.Time); err != nil {
		return h.fail(c, st, err)
	}
	return h.reply(c, http.StatusOK, st)
}

// Submit books the selected slot on the ledger.  A form post replaces name
// and consent; a JSON body only overrides the ones it sets.  Guests override
// the form when non-zero.
func (h *BookingHandler) Submit(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Guests != 0 {
		h.Flow.SetGuests(st, req.Guests)
	}
	// a form post carries the whole form; JSON only the fields it sets
	if name := strings.TrimSpace(req.Name); name != "" || isForm(c) {
		h.Flow.SetName(st, name)
	}
	if req.Consent || isForm(c) {
		h.Flow.SetConsent(st, req.Consent)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.WriteTimeout)
	defer cancel()
	created, err := h.Flow.Submit(ctx, st)
	if err != nil {
		return h.fail(c, st, err)
	}
	if h.Invalidate != nil {
		h.Invalidate(context.WithoutCancel(ctx))
	}
	if h.Events != nil {
		account := ""
		if a, ok := h.Accounts.CurrentAccount(ctx); ok {
			account = a.Hex()
		}
		h.Events.BookingCreated(ctx, created, account)
	}
	return h.reply(c, http.StatusCreated, st)
}

// Reset clears the form back to its initial state.
func (h *BookingHandler) Reset(c echo.Context) error {
	st := bookingState(c)
	if st == nil {
		return errNoSession
	}
	*st = booking.NewState()
	return h.reply(c, http.StatusOK, st)
}

func (h *BookingHandler) fail(c echo.Context, st *booking.State, err error) error {
	status := errorStatus(err)
	if status >= 500 {
		log.Printf("booking: %s %s: %v", c.Request().Method, c.Path(), err)
	}
	if isForm(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	msg := st.Message
	if msg == "" {
		msg = err.Error()
	}
	return c.JSON(status, echo.Map{"error": msg, "state": h.view(st)})
}
