package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, chatGroupID, senderID int, content string) (models.ChatMessage, error)
	ListForGroup(ctx context.Context, chatGroupID int) ([]models.ChatMessage, error)
	MarkGroupRead(ctx context.Context, chatGroupID, readerUserID int) (int, error)
	CountUnread(ctx context.Context, ident models.Identity) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_group_id, sender_id, content, is_read, sent_at`

// Create stores a message and bumps the group's last_message_at inside one
// transaction, so a message never lands without its activity marker. The
// transaction is scoped to this call and rolled back on every error path.
func (r *MessageRepo) Create(ctx context.Context, chatGroupID, senderID int, content string) (models.ChatMessage, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ChatMessage{}, err
	}
	defer tx.Rollback()

	var msg models.ChatMessage
	err = tx.QueryRowxContext(ctx, `INSERT INTO chat_messages (chat_group_id, sender_id, content) VALUES ($1, $2, $3)
        RETURNING `+messageColumns, chatGroupID, senderID, content).
		Scan(&msg.ID, &msg.ChatGroupID, &msg.SenderID, &msg.Content, &msg.IsRead, &msg.SentAt)
	if err != nil {
		return models.ChatMessage{}, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE chat_groups SET last_message_at=$1 WHERE id=$2`, msg.SentAt, chatGroupID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return models.ChatMessage{}, err
	}
	if count == 0 {
		return models.ChatMessage{}, ErrChatGroupNotFound
	}

	if err := tx.Commit(); err != nil {
		return models.ChatMessage{}, err
	}
	return msg, nil
}

// ListForGroup returns the group's messages in persisted send order.
func (r *MessageRepo) ListForGroup(ctx context.Context, chatGroupID int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM chat_messages
        WHERE chat_group_id=$1 ORDER BY sent_at ASC, id ASC`, chatGroupID)
	return msgs, err
}

// MarkGroupRead flips is_read on every unread message in the group that the
// reader did not send. The flag is monotonic; already-read rows are untouched.
// Returns the number of messages transitioned.
func (r *MessageRepo) MarkGroupRead(ctx context.Context, chatGroupID, readerUserID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_messages SET is_read = TRUE
        WHERE chat_group_id=$1 AND sender_id<>$2 AND is_read = FALSE`, chatGroupID, readerUserID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// CountUnread counts unread messages across all of the identity's groups,
// excluding the identity's own messages. Computed fresh on every call.
func (r *MessageRepo) CountUnread(ctx context.Context, ident models.Identity) (int, error) {
	column := "student_id"
	if ident.Type == models.SenderAssociation {
		column = "association_id"
	}
	query := `SELECT COUNT(*) FROM chat_messages m
        JOIN chat_groups g ON g.id = m.chat_group_id
        WHERE g.` + column + `=$1 AND m.is_read = FALSE AND m.sender_id<>$2`
	var count int
	err := r.db.GetContext(ctx, &count, query, ident.ProfileID(), ident.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return count, err
}
