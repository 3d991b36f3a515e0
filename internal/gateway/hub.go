package gateway

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Message is one wire event sent to clients
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans room events out to the sockets subscribed to each room. It
// implements the room service's EventSink.
type Hub struct {
	log *logrus.Logger

	mu    sync.RWMutex
	rooms map[string]map[*client]bool
}

// NewHub creates an empty hub
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		log:   log,
		rooms: make(map[string]map[*client]bool),
	}
}

func (h *Hub) subscribe(roomID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[*client]bool)
		h.rooms[roomID] = members
	}
	members[c] = true
}

func (h *Hub) unsubscribe(roomID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Publish broadcasts an event to every socket in the room. Slow consumers
// are dropped rather than allowed to stall the room.
func (h *Hub) Publish(roomID, event string, payload any) {
	data, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"room_id": roomID,
			"event":   event,
			"error":   err.Error(),
		}).Error("failed to encode event")
		return
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.rooms[roomID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	// drop stalled sockets: unsubscribe before closing so a concurrent
	// broadcast can never send on the closed channel
	for _, c := range slow {
		h.log.WithFields(logrus.Fields{
			"room_id": roomID,
			"uid":     c.uid,
		}).Warn("dropping slow client")
		h.unsubscribe(roomID, c)
		c.close()
	}
}
