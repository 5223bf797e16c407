package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"campus-chat-service/internal/events"
	"campus-chat-service/internal/middleware"
	"campus-chat-service/internal/observability"
	"campus-chat-service/internal/repositories"
)

// persistCheckTimeout bounds the membership lookups a client frame triggers.
const persistCheckTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientFrame is what clients send over the socket to manage subscriptions.
type clientFrame struct {
	Action      string `json:"action"`
	ChatGroupID int    `json:"chat_group_id"`
}

// Handler owns the websocket endpoint: it authenticates the connection,
// registers it for presence, joins the personal channel, and serves
// join/leave frames until the connection closes.
type Handler struct {
	hub         *Hub
	registry    *Registry
	broadcaster events.Broadcaster
	validator   middleware.TokenValidator
	profiles    repositories.ProfileRepository
	groups      repositories.ChatGroupRepository
}

// NewHandler constructs the websocket handler.
func NewHandler(hub *Hub, registry *Registry, broadcaster events.Broadcaster, validator middleware.TokenValidator, profiles repositories.ProfileRepository, groups repositories.ChatGroupRepository) *Handler {
	return &Handler{
		hub:         hub,
		registry:    registry,
		broadcaster: broadcaster,
		validator:   validator,
		profiles:    profiles,
		groups:      groups,
	}
}

// Handle upgrades the connection and runs its read loop.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("campus-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}

	userID, err := middleware.UserIDFromBearer(h.validator, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(userID, conn)
	becameOnline := h.registry.Register(client)
	h.hub.Join(client, events.PresenceChannel)
	h.hub.Join(client, events.UserChannel(userID))
	observability.IncWSActive()

	if becameOnline {
		if err := h.broadcaster.Publish(context.Background(), events.PresenceChannel, events.PresenceChanged(userID, true)); err != nil {
			log.Printf("presence publish failed user=%d: %v", userID, err)
		}
	}

	go h.readLoop(client)
}

func (h *Handler) readLoop(client *Client) {
	defer func() {
		h.hub.RemoveClient(client)
		becameOffline := h.registry.Unregister(client)
		observability.DecWSActive()
		client.Close()

		if becameOffline {
			if err := h.broadcaster.Publish(context.Background(), events.PresenceChannel, events.PresenceChanged(client.UserID, false)); err != nil {
				log.Printf("presence publish failed user=%d: %v", client.UserID, err)
			}
		}
	}()

	for {
		_, payload, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error user=%d conn=%s: %v", client.UserID, client.ID, err)
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			log.Printf("malformed client frame user=%d: %v", client.UserID, err)
			continue
		}
		h.handleFrame(client, frame)
	}
}

func (h *Handler) handleFrame(client *Client, frame clientFrame) {
	switch frame.Action {
	case "join":
		ctx, cancel := context.WithTimeout(context.Background(), persistCheckTimeout)
		defer cancel()

		ident, err := h.profiles.ResolveIdentity(ctx, client.UserID)
		if err != nil {
			log.Printf("join rejected user=%d group=%d: %v", client.UserID, frame.ChatGroupID, err)
			return
		}
		member, err := h.groups.IsParticipant(ctx, frame.ChatGroupID, ident)
		if err != nil || !member {
			log.Printf("join rejected user=%d group=%d member=%t err=%v", client.UserID, frame.ChatGroupID, member, err)
			return
		}
		h.hub.Join(client, events.ChatGroupChannel(frame.ChatGroupID))
	case "leave":
		h.hub.Leave(client, events.ChatGroupChannel(frame.ChatGroupID))
	default:
		log.Printf("unknown client frame action %q user=%d", frame.Action, client.UserID)
	}
}
