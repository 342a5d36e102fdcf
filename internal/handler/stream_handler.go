package handler

import (
	"io"
	"net/http"

	"globalroom/backend/internal/session"

	"github.com/gin-gonic/gin"
)

// StreamRoom godoc
// @Summary      Stream room changes
// @Description  Server-sent events of message inserts and updates, filtered for the caller's role: ordinary sessions receive soft-deleted rows with the text redacted.
// @Tags         room
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {string}  string "event stream"
// @Failure      401  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /room/stream [get]
func StreamRoom(c *gin.Context) {
	r, ok := roomFor(c)
	if !ok {
		return
	}
	role := r.Session().Role

	events, cancel, err := changes.Subscribe(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to subscribe to the change feed"})
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, open := <-events:
			if !open {
				return false
			}
			if role != session.RoleModerator && ev.Record.Deleted {
				// Ordinary clients learn the row is gone, not what it said.
				ev.Record.Text = ""
			}
			c.SSEvent(string(ev.Kind), ev)
			return true
		}
	})
}
