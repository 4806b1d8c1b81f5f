package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/clinical-cds-server/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from arbitrary origins in development; auth sits in
	// front of this server in production deployments.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub maintains the set of active alert stream subscribers and broadcasts
// clinical alerts to them.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	log        *logrus.Logger
}

// NewHub creates a new alert broadcast hub
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		log:        logger,
	}
}

// Run processes registration and broadcast events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.log.WithField("subscribers", len(h.clients)).Debug("Alert stream subscriber connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.WithField("subscribers", len(h.clients)).Debug("Alert stream subscriber disconnected")
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow subscriber, drop it
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast queues an alert for delivery to all subscribers
func (h *Hub) Broadcast(alert domain.ClinicalAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("Alert broadcast channel full, dropping alert from stream")
	}
	return nil
}

// wsClient is one connected alert stream subscriber
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump discards inbound messages and detects disconnects
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards broadcast alerts and keeps the connection alive
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// BroadcastAlertSink adapts the hub to the alert sink contract so emitted
// alerts reach connected stream subscribers.
type BroadcastAlertSink struct {
	hub *Hub
}

// NewBroadcastAlertSink wraps a hub as an alert sink
func NewBroadcastAlertSink(hub *Hub) *BroadcastAlertSink {
	return &BroadcastAlertSink{hub: hub}
}

// EmitAlert broadcasts the alert to all websocket subscribers
func (s *BroadcastAlertSink) EmitAlert(ctx context.Context, alert domain.ClinicalAlert) error {
	return s.hub.Broadcast(alert)
}
