package router // package router defines how HTTP routes are registered

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/handler"
	"github.com/iliyamo/restaurant-booking/internal/middleware"
	"github.com/iliyamo/restaurant-booking/internal/model"
	"github.com/iliyamo/restaurant-booking/internal/nav"
)

// RegisterRoutes registers the probes.
func RegisterRoutes(e *echo.Echo, accounts handler.AccountSource) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(accounts))
}

// RegisterPages registers the HTML pages and navigation.  sessions must be
// the session middleware; the pages keep their state in it.
func RegisterPages(e *echo.Echo, p *handler.PagesHandler, sessions echo.MiddlewareFunc) {
	g := e.Group("", sessions)
	g.GET("/", p.Index)
	g.POST("/booking", p.Show(nav.Booking))
	g.POST("/admin", p.Show(nav.Admin))
	g.POST("/contact", p.Show(nav.Contact))
	g.POST("/back", p.Back)

	g.GET("/v1/view", p.GetView)
	g.POST("/v1/view", p.SetView)
}

// RegisterBooking registers the booking form endpoints.  limit guards the
// submit route, which costs a ledger transaction.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, sessions, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/booking", sessions)
	g.GET("", b.Get)
	g.POST("/date", b.SelectDate)
	g.POST("/guests", b.SetGuests)
	g.POST("/name", b.SetName)
	g.POST("/consent", b.SetConsent)
	g.POST("/check", b.Check)
	g.GET("/slots/:time", b.Slot)
	g.POST("/time", b.SelectTime)
	g.POST("/submit", b.Submit, limit)
	g.POST("/reset", b.Reset)
}

// RegisterAuth registers admin sign-in.  Login, refresh and logout are
// open; /v1/me needs a valid ADMIN access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin))
}

// RegisterAdmin registers the ledger management API.  The listing is served
// through cache.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/bookings", h.ListBookings, cache)
	g.PUT("/bookings/:id", h.EditBooking)
	g.DELETE("/bookings/:id", h.DeleteBooking)
	g.POST("/venues", h.CreateVenue)
}

// RegisterLive registers the websocket feed.
func RegisterLive(e *echo.Echo, l *handler.LiveHandler) {
	e.GET("/v1/live", l.Serve)
}
