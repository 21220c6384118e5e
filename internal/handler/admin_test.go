package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/ledger"
	"github.com/iliyamo/restaurant-booking/internal/ledger/memledger"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

type adminEnv struct {
	e           *echo.Echo
	gw          *ledger.Gateway
	invalidated atomic.Int32
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	gw := ledger.NewGateway(memledger.New())
	t.Cleanup(gw.Close)
	ctx := context.Background()
	if _, err := gw.CreateVenue(ctx, "The Restaurant"); err != nil {
		t.Fatalf("create venue: %v", err)
	}
	day := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := gw.CreateBooking(ctx, 2, "Ada", day, 1800, 1); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	env := &adminEnv{gw: gw}
	h := NewAdminHandler(service.NewAdmin(gw, 1, defaultCapacity), time.Second, time.Second, func(context.Context) {
		env.invalidated.Add(1)
	})
	e := echo.New()
	g := e.Group("/v1/admin")
	g.GET("/bookings", h.ListBookings)
	g.PUT("/bookings/:id", h.EditBooking)
	g.DELETE("/bookings/:id", h.DeleteBooking)
	g.POST("/venues", h.CreateVenue)
	env.e = e
	return env
}

func (env *adminEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *adminEnv) list(t *testing.T) service.AdminView {
	t.Helper()
	rec := env.do(http.MethodGet, "/v1/admin/bookings", "")
	expectCode(t, rec, http.StatusOK)
	var v service.AdminView
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestAdminListBookings(t *testing.T) {
	t.Parallel()
	env := newAdminEnv(t)

	v := env.list(t)
	if v.VenueID != 1 || v.Total != 1 || len(v.Rows) != 1 {
		t.Fatalf("unexpected listing %+v", v)
	}
	row := v.Rows[0]
	if row.Name != "Ada" || row.Date != "01-05-2030" || row.Time != "18:00" || row.Guests != 2 {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestAdminEditBooking(t *testing.T) {
	t.Parallel()
	env := newAdminEnv(t)

	rec := env.do(http.MethodPut, "/v1/admin/bookings/1", `{"guests":4,"time":"21:00","date":"2030-05-03"}`)
	expectCode(t, rec, http.StatusOK)
	var row service.AdminRow
	if err := json.Unmarshal(rec.Body.Bytes(), &row); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if row.Guests != 4 || row.Time != "21:00" || row.Date != "03-05-2030" || row.Name != "Ada" {
		t.Fatalf("unexpected row %+v", row)
	}
	if env.invalidated.Load() != 1 {
		t.Fatalf("expected the cache to be invalidated once, got %d", env.invalidated.Load())
	}

	stored, err := env.gw.Booking(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Guests != 4 || stored.Time != model.Timeslot(2100) {
		t.Fatalf("expected the ledger to hold the edit, got %+v", stored)
	}
}

func TestAdminEditRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad id", "/v1/admin/bookings/abc", `{"guests":2}`, http.StatusBadRequest},
		{"zero id", "/v1/admin/bookings/0", `{"guests":2}`, http.StatusBadRequest},
		{"too many guests", "/v1/admin/bookings/1", `{"guests":9}`, http.StatusBadRequest},
		{"unknown slot", "/v1/admin/bookings/1", `{"time":"12:00"}`, http.StatusBadRequest},
		{"bad date", "/v1/admin/bookings/1", `{"date":"tomorrow"}`, http.StatusBadRequest},
		{"unknown booking", "/v1/admin/bookings/99", `{"guests":2}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			env := newAdminEnv(t)
			expectCode(t, env.do(http.MethodPut, tc.path, tc.body), tc.want)
			if env.invalidated.Load() != 0 {
				t.Fatalf("expected no invalidation")
			}
		})
	}
}

func TestAdminDeleteBooking(t *testing.T) {
	t.Parallel()
	env := newAdminEnv(t)

	expectCode(t, env.do(http.MethodDelete, "/v1/admin/bookings/1", ""), http.StatusNoContent)
	if v := env.list(t); len(v.Rows) != 0 {
		t.Fatalf("expected empty listing, got %+v", v.Rows)
	}
	if env.invalidated.Load() != 1 {
		t.Fatalf("expected one invalidation, got %d", env.invalidated.Load())
	}

	// the contract reverts for an id it no longer has
	expectCode(t, env.do(http.MethodDelete, "/v1/admin/bookings/1", ""), http.StatusBadGateway)
}

func TestAdminCreateVenue(t *testing.T) {
	t.Parallel()
	env := newAdminEnv(t)

	rec := env.do(http.MethodPost, "/v1/admin/venues", `{"name":"Second Room"}`)
	expectCode(t, rec, http.StatusCreated)
	var v model.Venue
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.ID != 2 || v.Name != "Second Room" {
		t.Fatalf("unexpected venue %+v", v)
	}

	expectCode(t, env.do(http.MethodPost, "/v1/admin/venues", `{"name":"  "}`), http.StatusBadRequest)
}
