package ws

import (
	"context"
	"encoding/json"

	"webchat/internal/common/logger"
	"webchat/internal/observability/metrics"
)

// EventNewChatMessage is emitted to every connected client when a message
// is accepted and persisted.
const EventNewChatMessage = "newChatMessage"

// Event is the frame pushed to websocket clients.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub fans events out to every connected websocket client. All client
// bookkeeping happens on the Run goroutine; handlers talk to it only
// through channels.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		log:        log,
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues an event for delivery to all connected clients.
// Delivery is best effort: the event is dropped entirely if the hub's
// queue is full, and per client if that client's send buffer is full.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.WithFields(logger.Fields{
			"event":  event.Event,
			"action": "ws_marshal",
		}).Errorf("websocket failed to marshal event: %v", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.log.WithFields(logger.Fields{
			"event":  event.Event,
			"action": "ws_broadcast_dropped",
		}).Warn("websocket broadcast queue full, event dropped")
	}
}

// Run owns the client set until ctx is cancelled, then closes every
// connection and returns.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			go h.drainAfterShutdown()
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.ActiveWebSocketConnections.Inc()
			h.log.WithFields(logger.Fields{
				"username": client.username,
				"total":    len(h.clients),
				"action":   "ws_register",
			}).Info("websocket client registered")

		case client := <-h.unregister:
			h.removeClient(client, "ws_unregister")

		case payload := <-h.broadcast:
			h.deliver(payload)
		}
	}
}

func (h *Hub) deliver(payload []byte) {
	delivered := 0
	for client := range h.clients {
		select {
		case client.send <- payload:
			delivered++
		default:
			// Slow consumer: drop the connection rather than block
			// the room.
			metrics.WebSocketClientsDropped.Inc()
			h.log.WithFields(logger.Fields{
				"username": client.username,
				"action":   "ws_client_dropped",
			}).Warn("websocket client too slow, dropping connection")
			h.removeClient(client, "ws_drop_slow")
		}
	}

	metrics.BroadcastsTotal.Inc()
	h.log.WithFields(logger.Fields{
		"clients": delivered,
		"action":  "ws_broadcast",
	}).Debug("websocket event broadcast")
}

func (h *Hub) removeClient(client *Client, action string) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)
	metrics.ActiveWebSocketConnections.Dec()
	h.log.WithFields(logger.Fields{
		"username": client.username,
		"total":    len(h.clients),
		"action":   action,
	}).Info("websocket client unregistered")
}

func (h *Hub) shutdown() {
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		metrics.ActiveWebSocketConnections.Dec()
	}

	h.log.WithFields(logger.Fields{
		"action": "ws_hub_shutdown",
	}).Info("websocket hub shutdown completed")
}

// drainAfterShutdown keeps the register and unregister channels flowing so
// read pumps that notice their closed connections late do not block.
func (h *Hub) drainAfterShutdown() {
	for {
		select {
		case client := <-h.register:
			close(client.send)
		case <-h.unregister:
		case <-h.broadcast:
		}
	}
}
