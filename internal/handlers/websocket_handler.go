package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/artgallery/server/internal/observability"
	"github.com/artgallery/server/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gallery is a local single-user app; any origin may watch it
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler streams gallery events to browsers
type WebSocketHandler struct {
	hub *services.WebSocketHub
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *services.WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleConnection upgrades to WebSocket and subscribes the client to gallery events
// @Summary Gallery event stream
// @Description Upgrade to WebSocket. The client is subscribed to the gallery topic.
// @Tags websocket
// @Success 101 "Switching protocols"
// @Router /api/ws [get]
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		observability.WithContext(r.Context()).WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := h.hub.NewClient(uuid.NewString(), conn)
	if !h.hub.Register(client) {
		conn.Close()
		return
	}
	h.hub.Subscribe(client, services.TopicGallery)

	go client.WritePump()
	client.ReadPump(h.handleMessage)
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(client *services.WSClient, data []byte) {
	var msg services.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		observability.Debugf("Invalid WebSocket message from %s: %v", client.ID, err)
		h.reply(client, services.WSMessage{Type: services.WSTypeError, Payload: "invalid message"})
		return
	}

	switch msg.Type {
	case services.WSTypeSubscribe:
		if topic := topicOf(msg.Payload); topic != "" {
			h.hub.Subscribe(client, topic)
		}

	case services.WSTypeUnsubscribe:
		if topic := topicOf(msg.Payload); topic != "" {
			h.hub.Unsubscribe(client, topic)
		}

	case services.WSTypePing:
		h.reply(client, services.WSMessage{Type: services.WSTypePong})

	default:
		observability.Debugf("Unknown WebSocket message type: %s", msg.Type)
	}
}

func (h *WebSocketHandler) reply(client *services.WSClient, msg services.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	client.Enqueue(data)
}

// topicOf accepts either "topic" or {"topic": "topic"}
func topicOf(payload any) string {
	switch p := payload.(type) {
	case string:
		return p
	case map[string]any:
		topic, _ := p["topic"].(string)
		return topic
	}
	return ""
}
