package events

import (
	"context"
	"fmt"

	"campus-chat-service/internal/models"
)

// Channel is a logical broadcast address connections subscribe to.
type Channel string

// PresenceChannel carries presence transitions; every live connection is
// joined to it implicitly.
const PresenceChannel Channel = "presence"

// UserChannel is the personal notification channel of one user.
func UserChannel(userID int) Channel {
	return Channel(fmt.Sprintf("user:%d", userID))
}

// ChatGroupChannel is the broadcast channel of one conversation.
func ChatGroupChannel(chatGroupID int) Channel {
	return Channel(fmt.Sprintf("chatgroup:%d", chatGroupID))
}

// Kind enumerates the closed set of outbound event kinds.
type Kind string

const (
	KindMessageReceived    Kind = "message_received"
	KindPresenceChanged    Kind = "presence_changed"
	KindMessagesMarkedRead Kind = "messages_marked_read"
	KindUnreadCountChanged Kind = "unread_count_changed"
)

// Event is the tagged payload delivered to subscribers. Exactly the fields
// matching Kind are set. IsOnline and UnreadCount carry meaningful zero
// values (went offline, badge cleared) and are never omitted.
type Event struct {
	Kind        Kind                    `json:"kind"`
	Message     *models.OutboundMessage `json:"message,omitempty"`
	UserID      int                     `json:"user_id,omitempty"`
	IsOnline    bool                    `json:"is_online"`
	ChatGroupID int                     `json:"chat_group_id,omitempty"`
	UnreadCount int                     `json:"unread_count"`
}

// MessageReceived builds the event published to chatgroup:{id} on send.
func MessageReceived(msg models.OutboundMessage) Event {
	return Event{Kind: KindMessageReceived, Message: &msg, ChatGroupID: msg.ChatGroupID}
}

// PresenceChanged builds the event published when a user crosses an
// online/offline edge.
func PresenceChanged(userID int, online bool) Event {
	return Event{Kind: KindPresenceChanged, UserID: userID, IsOnline: online}
}

// MessagesMarkedRead builds the event published to chatgroup:{id} when a
// participant marks the conversation read.
func MessagesMarkedRead(chatGroupID int) Event {
	return Event{Kind: KindMessagesMarkedRead, ChatGroupID: chatGroupID}
}

// UnreadCountChanged builds the event published to user:{id} after a
// recompute.
func UnreadCountChanged(userID, count int) Event {
	return Event{Kind: KindUnreadCountChanged, UserID: userID, UnreadCount: count}
}

// Broadcaster is the single seam between the core and whatever transport
// delivers events to clients. Implementations never fail the triggering
// business operation: a returned error is for the caller to log.
type Broadcaster interface {
	Publish(ctx context.Context, channel Channel, event Event) error
}
