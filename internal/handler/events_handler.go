package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/elektromart/bundle_api/internal/sse"
)

// EventsHandler streams bundle change events to admin dashboards over SSE.
type EventsHandler struct {
	hub *sse.Hub
}

// NewEventsHandler constructs an EventsHandler.
func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /v1/admin/events
func (h *EventsHandler) Stream(c *gin.Context) {
	clientID := uuid.NewString()
	client := h.hub.Register(clientID)
	defer h.hub.Unregister(clientID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("message", string(data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
