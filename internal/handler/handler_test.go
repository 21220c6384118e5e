package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/booking"
	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/ledger"
	"github.com/iliyamo/restaurant-booking/internal/ledger/memledger"
	"github.com/iliyamo/restaurant-booking/internal/middleware"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/nav"
	"github.com/iliyamo/restaurant-booking/internal/service"
	"github.com/iliyamo/restaurant-booking/internal/session"
	"github.com/iliyamo/restaurant-booking/internal/web"
)

const visitDate = "2030-05-01"

var defaultCapacity = booking.Capacity{PerTableMax: 6, Tables: 15, Slots: []model.Timeslot{1800, 2100}}

type recordingAnnouncer struct {
	mu       sync.Mutex
	bookings []model.Booking
	accounts []string
}

func (r *recordingAnnouncer) BookingCreated(ctx context.Context, b model.Booking, account string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings = append(r.bookings, b)
	r.accounts = append(r.accounts, account)
	done := make(chan struct{})
	close(done)
	return done
}

func (r *recordingAnnouncer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

// testEnv is one visitor talking to a fully wired app backed by memledger.
type testEnv struct {
	e        *echo.Echo
	gw       *ledger.Gateway
	contract *memledger.Contract
	events   *recordingAnnouncer
	cookie   *http.Cookie
	// cache invalidations triggered by bookings
	flushed  atomic.Int32
}

func newEnv(t *testing.T, capacity booking.Capacity, contract *memledger.Contract) *testEnv {
	t.Helper()
	if contract == nil {
		contract = memledger.New()
	}
	gw := ledger.NewGateway(contract)
	t.Cleanup(gw.Close)
	if _, ok := gw.CurrentAccount(context.Background()); ok {
		if _, err := gw.CreateVenue(context.Background(), "The Restaurant"); err != nil {
			t.Fatalf("create venue: %v", err)
		}
	}

	env := &testEnv{gw: gw, contract: contract, events: &recordingAnnouncer{}}
	locker := session.NewMemoryLocker()
	flow := booking.NewFlow(gw, capacity, 1, locker)
	sessions := middleware.Sessions(
		config.SessionConfig{CookieName: "rb_session", TTL: time.Hour},
		session.NewMemoryStore(time.Hour),
		locker,
	)

	e := echo.New()
	e.Renderer = web.NewRenderer()
	e.GET("/readyz", Ready(gw))

	pages := &PagesHandler{
		Capacity:    capacity,
		Admin:       service.NewAdmin(gw, 1, capacity),
		Venues:      gw,
		Accounts:    gw,
		VenueID:     1,
		DefaultName: "Fallback Diner",
		ReadTimeout: time.Second,
	}
	p := e.Group("", sessions)
	p.GET("/", pages.Index)
	p.POST("/booking", pages.Show(nav.Booking))
	p.POST("/admin", pages.Show(nav.Admin))
	p.POST("/contact", pages.Show(nav.Contact))
	p.POST("/back", pages.Back)
	p.GET("/v1/view", pages.GetView)
	p.POST("/v1/view", pages.SetView)

	b := NewBookingHandler(flow, gw, env.events, time.Second, time.Second, func(context.Context) {
		env.flushed.Add(1)
	})
	g := e.Group("/v1/booking", sessions)
	g.GET("", b.Get)
	g.POST("/date", b.SelectDate)
	g.POST("/guests", b.SetGuests)
	g.POST("/name", b.SetName)
	g.POST("/consent", b.SetConsent)
	g.POST("/check", b.Check)
	g.GET("/slots/:time", b.Slot)
	g.POST("/time", b.SelectTime)
	g.POST("/submit", b.Submit)
	g.POST("/reset", b.Reset)

	env.e = e
	return env
}

// do sends a request carrying the visitor's cookie.  Bodies starting with
// "{" are sent as JSON, anything else as a urlencoded form.
func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	switch {
	case strings.HasPrefix(body, "{"):
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	case body != "":
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if env.cookie != nil {
		req.AddCookie(env.cookie)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "rb_session" {
			env.cookie = ck
		}
	}
	return rec
}

func (env *testEnv) state(t *testing.T) bookingView {
	t.Helper()
	rec := env.do(t, http.MethodGet, "/v1/booking", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from GET /v1/booking, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeView(t, rec.Body.Bytes())
}

func decodeView(t *testing.T, body []byte) bookingView {
	t.Helper()
	var v bookingView
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode view: %v: %s", err, body)
	}
	return v
}

type failureBody struct {
	Error string      `json:"error"`
	State bookingView `json:"state"`
}

func decodeFailure(t *testing.T, body []byte) failureBody {
	t.Helper()
	var f failureBody
	if err := json.Unmarshal(body, &f); err != nil {
		t.Fatalf("decode failure: %v: %s", err, body)
	}
	return f
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDay(s)
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	return d
}

func expectCode(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
