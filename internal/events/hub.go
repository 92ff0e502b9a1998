package events

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub tracks which connection subscribed to which topic. Delivery is
// at-most-once: a subscriber that connects after an event fired never sees
// it, and a slow subscriber has frames dropped rather than blocking the rest.
type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		topics: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Subscribe(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][c] = struct{}{}
}

func (h *Hub) Unsubscribe(topic string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.topics[topic]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Remove drops the client from every topic. Called on disconnect.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for topic, subs := range h.topics {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Deliver pushes an envelope to every local subscriber of its topic.
func (h *Hub) Deliver(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("marshaling envelope", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.topics[env.Topic] {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("subscriber too slow, frame dropped", zap.String("topic", env.Topic))
		}
	}
}

func (h *Hub) subscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
