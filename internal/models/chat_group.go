package models

import (
	"database/sql"
	"time"
)

// ChatGroup is the conversation between exactly one student and one
// association. At most one group exists per (student, association) pair.
type ChatGroup struct {
	ID            int          `db:"id" json:"id"`
	StudentID     int          `db:"student_id" json:"student_id"`
	AssociationID int          `db:"association_id" json:"association_id"`
	LastMessageAt sql.NullTime `db:"last_message_at" json:"last_message_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// ChatGroupSummary is the API-friendly view of a group for one caller.
type ChatGroupSummary struct {
	ChatGroupID   int        `json:"chat_group_id"`
	PeerName      string     `json:"peer_name,omitempty"`
	PeerAvatarURL string     `json:"peer_avatar_url,omitempty"`
	PeerOnline    bool       `json:"peer_online"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}
