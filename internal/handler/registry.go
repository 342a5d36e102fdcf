package handler

import (
	"context"
	"net/http"
	"sync"

	"globalroom/backend/internal/config"
	"globalroom/backend/internal/database"
	"globalroom/backend/internal/feed"
	"globalroom/backend/internal/gateway"
	"globalroom/backend/internal/models"
	"globalroom/backend/internal/room"
	"globalroom/backend/internal/session"

	"github.com/gin-gonic/gin"
)

var (
	store   gateway.MessageStore
	changes feed.Feed

	roomsMu sync.Mutex
	rooms   map[uint]*room.Room
)

// Setup wires the handlers to the message store and change feed. Must be
// called once before the router starts serving.
func Setup(s gateway.MessageStore, f feed.Feed) {
	store = s
	changes = f
	rooms = make(map[uint]*room.Room)
}

// Shutdown closes every open room session.
func Shutdown() {
	roomsMu.Lock()
	defer roomsMu.Unlock()
	for id, r := range rooms {
		r.Close()
		delete(rooms, id)
	}
}

// roomFor returns the caller's room session, opening it on first use. The
// session context (and with it the role) is resolved once, at open time.
func roomFor(c *gin.Context) (*room.Room, bool) {
	userID := c.MustGet("userID").(uint)

	roomsMu.Lock()
	defer roomsMu.Unlock()

	if r, ok := rooms[userID]; ok {
		return r, true
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Authenticated user not found"})
		return nil, false
	}

	sess := session.Resolve(user.ID, user.Nickname, user.Email, config.AppConfig.ModeratorEmail)
	r, err := room.Open(context.Background(), store, changes, sess, room.Options{
		ResyncInterval: config.AppConfig.ResyncInterval(),
		BannerTimeout:  config.AppConfig.BannerTimeout(),
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to join the room"})
		return nil, false
	}
	rooms[userID] = r
	return r, true
}

// closeRoomFor tears down the caller's room session, if open.
func closeRoomFor(userID uint) {
	roomsMu.Lock()
	defer roomsMu.Unlock()
	if r, ok := rooms[userID]; ok {
		r.Close()
		delete(rooms, userID)
	}
}
