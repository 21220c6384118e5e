package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

// Health is the liveness probe.  It returns "ok" as long as the process
// serves HTTP.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// AccountSource reports the identity bookings are signed with.
type AccountSource interface {
	CurrentAccount(ctx context.Context) (common.Address, bool)
}

// Ready reports whether the ledger is reachable and has a signing identity.
// Reads keep working without one, so a 503 here only means bookings
// cannot be submitted.
func Ready(l AccountSource) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		account, ok := l.CurrentAccount(ctx)
		if !ok {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"ready": false, "error": "no ledger account"})
		}
		return c.JSON(http.StatusOK, echo.Map{"ready": true, "account": account.Hex()})
	}
}
