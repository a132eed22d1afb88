// Package websocket fans audit events out to admin consoles over
// WebSocket connections.
package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Outbound messages for every client.
	broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Account ids whose connections must be dropped.
	disconnect chan string

	done     chan struct{}
	stopOnce sync.Once
	count    atomic.Int64
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		disconnect: make(chan string),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.count.Store(int64(len(h.clients)))
			client.Send <- newSubscribedMessage(len(h.clients))
			log.Info().Str("user_id", client.AccountID).Int("total_clients", len(h.clients)).Msg("Feed client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.remove(client)
				log.Info().Str("user_id", client.AccountID).Int("total_clients", len(h.clients)).Msg("Feed client disconnected")
			}
		case accountID := <-h.disconnect:
			dropped := 0
			for client := range h.clients {
				if client.AccountID == accountID {
					h.remove(client)
					dropped++
				}
			}
			if dropped > 0 {
				log.Info().Str("user_id", accountID).Int("dropped", dropped).Msg("Feed clients disconnected")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Slow consumer; drop it rather than stall the feed.
					h.remove(client)
				}
			}
		case <-h.done:
			for client := range h.clients {
				h.remove(client)
			}
			return
		}
	}
}

// Publish queues message for every connected client. It never blocks the
// caller; messages are dropped when the hub is saturated or stopped.
func (h *Hub) Publish(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	default:
		log.Warn().Msg("Event feed saturated, dropping message")
	}
}

// DisconnectAccount closes every feed connection held by accountID. It
// returns once the hub has dropped them, so messages published afterwards
// never reach that account.
func (h *Hub) DisconnectAccount(accountID string) {
	select {
	case h.disconnect <- accountID:
	case <-h.done:
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	return int(h.count.Load())
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Subscribe adds client to the feed. It reports false once the hub has
// stopped.
func (h *Hub) Subscribe(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.Send)
	h.count.Store(int64(len(h.clients)))
}
