package server

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

type feedbackEventPayload struct {
	PageID     string    `json:"page_id"`
	Slug       string    `json:"slug"`
	ReceivedAt time.Time `json:"received_at"`
}

type heartbeatPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

func (h *httpHandler) handleEvents(c *gin.Context) {
	caller := callerFromContext(c)
	requestCtx := c.Request.Context()
	stream, cleanup := h.realtime.Subscribe(requestCtx, caller.UserID)
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(realtimeEventHeartbeat, heartbeatPayload{Timestamp: time.Now().UTC()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	c.Stream(func(io.Writer) bool {
		select {
		case <-requestCtx.Done():
			return false
		case message, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(message.EventType, feedbackEventPayload{
				PageID:     message.PageID,
				Slug:       message.Slug,
				ReceivedAt: message.Timestamp.UTC(),
			})
			return true
		case tick := <-ticker.C:
			c.SSEvent(realtimeEventHeartbeat, heartbeatPayload{Timestamp: tick.UTC()})
			return true
		}
	})
}
