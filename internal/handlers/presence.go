package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-chat-service/internal/ws"
)

// PresenceHandler answers online-status queries from the live registry.
type PresenceHandler struct {
	registry *ws.Registry
}

// NewPresenceHandler builds a PresenceHandler.
func NewPresenceHandler(registry *ws.Registry) *PresenceHandler {
	return &PresenceHandler{registry: registry}
}

// OnlineStatus reports whether a user currently has a live connection.
func (h *PresenceHandler) OnlineStatus(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"is_online": h.registry.IsOnline(userID),
	})
}
