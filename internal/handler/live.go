package handler

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-booking/internal/live"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

// LiveHandler upgrades /v1/live to a websocket that receives booking
// events for one venue.  Clients only listen; anything they send is
// discarded.
type LiveHandler struct {
	Hub      *live.Hub
	VenueID  uint64
	upgrader websocket.Upgrader
}

func NewLiveHandler(h *live.Hub, venueID uint64) *LiveHandler {
	return &LiveHandler{Hub: h, VenueID: venueID}
}

func (h *LiveHandler) Serve(c echo.Context) error {
	venue := h.VenueID
	if v, err := strconv.ParseUint(c.QueryParam("venue"), 10, 64); err == nil {
		venue = v
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already answered the request
		return nil
	}
	client := &live.Client{ID: uuid.NewString(), VenueID: venue, Send: make(chan []byte, 16)}
	h.Hub.Register(client)

	go writePump(conn, client.Send)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.Hub.Unregister(client)
	return nil
}

// writePump owns all writes to conn.  It closes conn once send is closed or
// a write fails.
func writePump(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
