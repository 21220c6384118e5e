package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/ledger"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/service"
)

// AdminHandler exposes the admin listing and ledger corrections.  Routes
// are expected behind JWTAuth and RequireRole(ADMIN).
type AdminHandler struct {
	Admin        *service.Admin
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Invalidate drops cached listings after a write; may be nil.
	Invalidate func(ctx context.Context)
}

func NewAdminHandler(a *service.Admin, read, write time.Duration, invalidate func(ctx context.Context)) *AdminHandler {
	return &AdminHandler{Admin: a, ReadTimeout: read, WriteTimeout: write, Invalidate: invalidate}
}

type editBookingReq struct {
	Guests int            `json:"guests"`
	Name   string         `json:"name"`
	Date   string         `json:"date"` // YYYY-MM-DD, optional
	Time   model.Timeslot `json:"time"`
}

type createVenueReq struct {
	Name string `json:"name"`
}

// ListBookings returns every booking of the venue.  Ledger failures yield
// an empty list, never an error.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.ReadTimeout)
	defer cancel()
	return c.JSON(http.StatusOK, h.Admin.List(ctx))
}

// EditBooking overwrites the fields given in the body.
func (h *AdminHandler) EditBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req editBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	edit := service.BookingEdit{Guests: req.Guests, Name: req.Name, Time: req.Time}
	if req.Date != "" {
		if edit.Date, err = model.ParseDay(req.Date); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.WriteTimeout)
	defer cancel()
	row, err := h.Admin.Edit(ctx, id, edit)
	if err != nil {
		return adminError(c, err)
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusOK, row)
}

// DeleteBooking removes a booking from the ledger.
func (h *AdminHandler) DeleteBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.WriteTimeout)
	defer cancel()
	if err := h.Admin.Remove(ctx, id); err != nil {
		return adminError(c, err)
	}
	h.invalidate(ctx)
	return c.NoContent(http.StatusNoContent)
}

// CreateVenue registers a restaurant on the ledger.
func (h *AdminHandler) CreateVenue(c echo.Context) error {
	var req createVenueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.WriteTimeout)
	defer cancel()
	id, err := h.Admin.CreateVenue(ctx, req.Name)
	if err != nil {
		return adminError(c, err)
	}
	return c.JSON(http.StatusCreated, model.Venue{ID: id, Name: req.Name})
}

func (h *AdminHandler) invalidate(ctx context.Context) {
	if h.Invalidate != nil {
		h.Invalidate(context.WithoutCancel(ctx))
	}
}

func adminError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, ledger.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, ledger.ErrNoIdentity):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "no ledger account"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "ledger timeout"})
	}
	log.Printf("admin: %s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
}
