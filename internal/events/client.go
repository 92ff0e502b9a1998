package events

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"pronto/internal/auth"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	principal auth.Principal
	send      chan []byte
	logger    *zap.Logger
}

type subscribeFrame struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Handler upgrades the connection and runs the subscription protocol.
// Role-scoped topics are joined automatically, order topics on request.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHandler(hub *Hub, logger *zap.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		principal: auth.FromContext(r.Context()),
		send:      make(chan []byte, sendBuffer),
		logger:    h.logger,
	}

	// Admins join the admin cohort, customers their own topic, immediately.
	if client.principal.IsAdmin() {
		h.hub.Subscribe(TopicAdmin, client)
	}
	if client.principal.IsCustomer() && client.principal.ID != "" {
		h.hub.Subscribe(CustomerTopic(client.principal.ID), client)
	}

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame subscribeFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		if !c.allowed(frame.Topic) {
			continue
		}

		switch frame.Action {
		case "subscribe":
			c.hub.Subscribe(frame.Topic, c)
		case "unsubscribe":
			c.hub.Unsubscribe(frame.Topic, c)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// allowed gates topic access by role: order topics are public (tracking by
// order number hands out the id), the admin cohort is admin-only, customer
// topics only match the authenticated customer.
func (c *Client) allowed(topic string) bool {
	switch {
	case strings.HasPrefix(topic, "order:"):
		return true
	case topic == TopicAdmin:
		return c.principal.IsAdmin()
	case strings.HasPrefix(topic, "customer:"):
		return c.principal.IsCustomer() && topic == CustomerTopic(c.principal.ID)
	default:
		return false
	}
}
