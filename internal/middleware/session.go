package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/session"
)

const sessionKey = "session"

// Locker serialises access to one key across requests.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// Sessions loads the visitor's session from the cookie, creating one when
// the cookie is missing or stale, and holds the session lock for the whole
// request so two tabs cannot interleave updates.  The session is saved
// after the handler returns, also when it returns an error: the booking
// form records failures in its state.
func Sessions(cfg config.SessionConfig, store session.Store, locker Locker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			id := ""
			if ck, err := c.Cookie(cfg.CookieName); err == nil && session.ValidID(ck.Value) {
				id = ck.Value
			}
			if id != "" && locker != nil {
				unlock, err := locker.Lock(ctx, "session:"+id)
				if err != nil {
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session busy"})
				}
				defer unlock()
			}

			var s session.Session
			if id != "" {
				loaded, err := store.Get(ctx, id)
				switch {
				case err == nil:
					s = loaded
				case errors.Is(err, session.ErrNotFound):
					id = ""
				default:
					log.Printf("session: load %s: %v", id, err)
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session store unavailable"})
				}
			}
			if id == "" {
				s = session.New()
			}
			c.SetCookie(&http.Cookie{
				Name:     cfg.CookieName,
				Value:    s.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(cfg.TTL),
			})
			c.Set(sessionKey, &s)

			herr := next(c)

			// a cancelled request still has to persist what the handler did
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := store.Save(saveCtx, s); err != nil {
				log.Printf("session: save %s: %v", s.ID, err)
			}
			return herr
		}
	}
}

// CurrentSession returns the session Sessions attached to c, or nil when
// the middleware did not run.
func CurrentSession(c echo.Context) *session.Session {
	s, _ := c.Get(sessionKey).(*session.Session)
	return s
}
