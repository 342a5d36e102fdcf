package handler

import (
	"errors"
	"net/http"
	"strconv"

	"globalroom/backend/internal/gateway"
	"globalroom/backend/internal/room"
	"globalroom/backend/internal/view"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// MessageInput carries the text of a send or edit.
type MessageInput struct {
	Text string `json:"text" binding:"required" example:"hello everyone"`
}

// RoomViewResponse is the projected room timeline for the caller's role.
type RoomViewResponse struct {
	Items  []view.Item `json:"items"`
	Banner string      `json:"banner,omitempty"`
}

// endregion

// GetRoomView godoc
// @Summary      Get the room timeline
// @Description  Returns the merged, ordered message view projected for the caller's role, plus any transient error banner.
// @Tags         room
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RoomViewResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /room/view [get]
func GetRoomView(c *gin.Context) {
	r, ok := roomFor(c)
	if !ok {
		return
	}

	editID, draft, editing := r.Coordinator().Editing()
	items := view.Project(r.Current(), r.Session(), view.EditState{
		Active: editing,
		ID:     editID,
		Draft:  draft,
	})

	resp := RoomViewResponse{Items: items}
	if msg, visible := r.Banner().Current(); visible {
		resp.Banner = msg
	}
	c.JSON(http.StatusOK, resp)
}

// SendMessage godoc
// @Summary      Send a message
// @Description  Posts a new message to the room authored by the caller.
// @Tags         room
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body MessageInput true "Message text"
// @Success      201  {object}  RoomViewResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /room/messages [post]
func SendMessage(c *gin.Context) {
	var input MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, ok := roomFor(c)
	if !ok {
		return
	}

	if err := r.Coordinator().Send(c.Request.Context(), input.Text); err != nil {
		respondMutationError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// EditMessage godoc
// @Summary      Edit a message
// @Description  Replaces the text of one of the caller's own messages.
// @Tags         room
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Message ID"
// @Param        input body MessageInput true "New text"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /room/messages/{id} [put]
func EditMessage(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	var input MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, ok := roomFor(c)
	if !ok {
		return
	}

	if err := r.Coordinator().Edit(c.Request.Context(), id, input.Text); err != nil {
		respondMutationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteMessage godoc
// @Summary      Delete a message
// @Description  Soft-deletes one of the caller's own messages. The row stays in the store; ordinary sessions stop seeing it, moderators see it badged.
// @Tags         room
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Message ID"
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /room/messages/{id} [delete]
func DeleteMessage(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	r, ok := roomFor(c)
	if !ok {
		return
	}

	if err := r.Coordinator().SoftDelete(c.Request.Context(), id); err != nil {
		respondMutationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// BeginEdit godoc
// @Summary      Enter edit mode for a message
// @Description  Starts inline editing of one of the caller's own messages. Starting a second edit abandons the first with nothing persisted.
// @Tags         room
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Message ID"
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /room/messages/{id}/edit [post]
func BeginEdit(c *gin.Context) {
	id, ok := messageID(c)
	if !ok {
		return
	}

	r, ok := roomFor(c)
	if !ok {
		return
	}

	if err := r.Coordinator().BeginEdit(id); err != nil {
		respondMutationError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CancelEdit godoc
// @Summary      Leave edit mode
// @Description  Abandons the in-progress inline edit with nothing persisted.
// @Tags         room
// @Produce      json
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Router       /room/edit [delete]
func CancelEdit(c *gin.Context) {
	r, ok := roomFor(c)
	if !ok {
		return
	}
	r.Coordinator().CancelEdit()
	c.Status(http.StatusNoContent)
}

// LeaveRoom godoc
// @Summary      Leave the room
// @Description  Tears down the caller's room session: feed subscription and reconciliation loop stop.
// @Tags         room
// @Produce      json
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Router       /room/leave [post]
func LeaveRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	closeRoomFor(userID)
	c.Status(http.StatusNoContent)
}

func messageID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return 0, false
	}
	return uint(id), true
}

func respondMutationError(c *gin.Context, err error) {
	var verr *room.ValidationError
	var aerr *room.AuthorizationError
	var perr *room.PersistenceError
	var terr *room.TransportError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.As(err, &aerr):
		c.JSON(http.StatusForbidden, gin.H{"error": aerr.Message})
	case errors.Is(err, room.ErrUnknownMessage), errors.Is(err, gateway.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
	case errors.As(err, &perr), errors.As(err, &terr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
