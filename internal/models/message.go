package models

import "time"

// ChatMessage is one message inside a chat group. Immutable after insert
// except for the IsRead flag, which only ever moves false -> true.
type ChatMessage struct {
	ID          int       `db:"id" json:"id"`
	ChatGroupID int       `db:"chat_group_id" json:"chat_group_id"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	Content     string    `db:"content" json:"content"`
	IsRead      bool      `db:"is_read" json:"is_read"`
	SentAt      time.Time `db:"sent_at" json:"sent_at"`
}

// OutboundMessage is the payload broadcast to chat-group subscribers when a
// message is accepted, enriched with the sender's display info.
type OutboundMessage struct {
	ChatMessage
	SenderName   string     `json:"sender_name,omitempty"`
	SenderAvatar string     `json:"sender_avatar,omitempty"`
	SenderType   SenderType `json:"sender_type"`
}
