// Package ws implements the realtime relay. Clients join rooms (one
// per chat, plus a personal room per user) and new messages are fanned
// out to everyone else in the chat's room
package ws

import (
	"encoding/json"
	"sync"
)

// Event is the wire envelope for everything crossing the socket
type Event struct {
	Event  string          `json:"event"`
	ChatID string          `json:"chatId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}

	h.rooms[room][c] = true
}

func (h *Hub) leaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast sends payload to every client in a room. A non-nil sender
// is skipped so clients don't receive their own messages back
func (h *Hub) Broadcast(room string, payload []byte, sender *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		if c == sender {
			continue
		}

		select {
		case c.send <- payload:
		default:
			// Slow consumer, drop the frame instead of blocking the relay
		}
	}
}

// BroadcastMessage relays a freshly stored chat message to the chat's
// room. Called from the REST handler after the write succeeds
func (h *Hub) BroadcastMessage(chatID string, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	payload, err := json.Marshal(Event{
		Event:  "message received",
		ChatID: chatID,
		Data:   data,
	})
	if err != nil {
		return
	}

	h.Broadcast(chatID, payload, nil)
}
