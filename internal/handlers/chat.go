package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-chat-service/internal/models"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/services"
	"campus-chat-service/internal/ws"
)

// ChatHandler exposes the REST surface over chat groups and messages.
type ChatHandler struct {
	profiles       repositories.ProfileRepository
	groups         repositories.ChatGroupRepository
	messages       repositories.MessageRepository
	messageService *services.MessageService
	unreadService  *services.UnreadService
	registry       *ws.Registry
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(profiles repositories.ProfileRepository, groups repositories.ChatGroupRepository, messages repositories.MessageRepository, messageService *services.MessageService, unreadService *services.UnreadService, registry *ws.Registry) *ChatHandler {
	return &ChatHandler{
		profiles:       profiles,
		groups:         groups,
		messages:       messages,
		messageService: messageService,
		unreadService:  unreadService,
		registry:       registry,
	}
}

// ListChatGroups returns the caller's conversations with peer display info.
func (h *ChatHandler) ListChatGroups(c *gin.Context) {
	userID := c.GetInt("userID")

	ident, err := h.profiles.ResolveIdentity(c.Request.Context(), userID)
	if err != nil {
		c.JSON(identityStatus(err), gin.H{"error": "failed to resolve identity"})
		return
	}

	groups, err := h.groups.ListForIdentity(c.Request.Context(), ident)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	summaries := make([]models.ChatGroupSummary, 0, len(groups))
	for _, group := range groups {
		summary := models.ChatGroupSummary{ChatGroupID: group.ID}
		if group.LastMessageAt.Valid {
			at := group.LastMessageAt.Time
			summary.LastMessageAt = &at
		}

		if ident.Type == models.SenderStudent {
			association, err := h.profiles.GetAssociation(c.Request.Context(), group.AssociationID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load peer info"})
				return
			}
			summary.PeerName = association.Name
			summary.PeerAvatarURL = association.LogoURL
			summary.PeerOnline = h.registry.IsOnline(association.UserID)
		} else {
			student, err := h.profiles.GetStudent(c.Request.Context(), group.StudentID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load peer info"})
				return
			}
			summary.PeerName = student.FullName
			summary.PeerAvatarURL = student.AvatarURL
			summary.PeerOnline = h.registry.IsOnline(student.UserID)
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, gin.H{"chats": summaries})
}

// StartChat creates or returns the group between the caller and a peer.
// Students start chats with associations and vice versa.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		PeerID int `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	ident, err := h.profiles.ResolveIdentity(c.Request.Context(), userID)
	if err != nil {
		c.JSON(identityStatus(err), gin.H{"error": "failed to resolve identity"})
		return
	}

	var studentID, associationID int
	if ident.Type == models.SenderStudent {
		association, err := h.profiles.GetAssociation(c.Request.Context(), req.PeerID)
		if err != nil {
			c.JSON(identityStatus(err), gin.H{"error": "association not found"})
			return
		}
		studentID, associationID = ident.Student.ID, association.ID
	} else {
		student, err := h.profiles.GetStudent(c.Request.Context(), req.PeerID)
		if err != nil {
			c.JSON(identityStatus(err), gin.H{"error": "student not found"})
			return
		}
		studentID, associationID = student.ID, ident.Association.ID
	}

	group, err := h.groups.CreateOrGet(c.Request.Context(), studentID, associationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_group_id": group.ID})
}

// GetMessages returns the group's history, participant-only.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatGroupID, ok := chatGroupIDParam(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	ident, err := h.profiles.ResolveIdentity(c.Request.Context(), userID)
	if err != nil {
		c.JSON(identityStatus(err), gin.H{"error": "failed to resolve identity"})
		return
	}

	member, err := h.groups.IsParticipant(c.Request.Context(), chatGroupID, ident)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	msgs, err := h.messages.ListForGroup(c.Request.Context(), chatGroupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage runs the ingestion pipeline for one REST-submitted message.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	chatGroupID, ok := chatGroupIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageService.Send(c.Request.Context(), chatGroupID, userID, req.Content)
	if err != nil {
		c.JSON(sendStatus(err), gin.H{"error": sendErrorText(err)})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkRead flips the group's unread peer messages to read for the caller.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatGroupID, ok := chatGroupIDParam(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if err := h.messageService.MarkRead(c.Request.Context(), chatGroupID, userID); err != nil {
		c.JSON(sendStatus(err), gin.H{"error": sendErrorText(err)})
		return
	}

	c.Status(http.StatusNoContent)
}

// UnreadCount returns the caller's current unread total.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt("userID")
	count, err := h.unreadService.Count(c.Request.Context(), userID)
	if err != nil {
		c.JSON(identityStatus(err), gin.H{"error": "failed to count unread messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func chatGroupIDParam(c *gin.Context) (int, bool) {
	chatGroupID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return chatGroupID, true
}

func identityStatus(err error) int {
	if errors.Is(err, repositories.ErrIdentityNotFound) {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func sendStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, repositories.ErrChatGroupNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func sendErrorText(err error) string {
	switch {
	case errors.Is(err, services.ErrEmptyContent):
		return "message content is empty"
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrNotParticipant):
		return "not allowed"
	case errors.Is(err, repositories.ErrChatGroupNotFound):
		return "chat not found"
	default:
		return "failed to process message"
	}
}
