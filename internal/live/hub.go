// Package live pushes booking events to open pages over websockets so they
// can refresh their availability and listings.
package live

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Client is one connected page.  VenueID zero receives every venue.
type Client struct {
	ID      string
	VenueID uint64
	Send    chan []byte
}

// Message is the envelope written to clients.
type Message struct {
	Type      string          `json:"type"`
	VenueID   uint64          `json:"venue_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Hub fans messages out to registered clients.  A client that cannot keep
// up loses messages rather than blocking the broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes c and closes its Send channel.  It is a no-op for a
// client that is not registered.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.Send)
}

// Len is the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers payload under typ to every client watching venueID.
func (h *Hub) Broadcast(typ string, venueID uint64, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("live: marshal %s: %v", typ, err)
		return
	}
	msg, err := json.Marshal(Message{Type: typ, VenueID: venueID, Payload: raw, CreatedAt: time.Now().UTC()})
	if err != nil {
		log.Printf("live: marshal envelope: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.VenueID != 0 && c.VenueID != venueID {
			continue
		}
		select {
		case c.Send <- msg:
		default:
			log.Printf("live: drop message for client %s", c.ID)
		}
	}
}
