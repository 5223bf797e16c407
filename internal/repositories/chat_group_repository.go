package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

var ErrChatGroupNotFound = errors.New("chat group not found")

// ChatGroupRepository abstracts chat-group persistence.
type ChatGroupRepository interface {
	CreateOrGet(ctx context.Context, studentID, associationID int) (models.ChatGroup, error)
	Get(ctx context.Context, chatGroupID int) (models.ChatGroup, error)
	IsParticipant(ctx context.Context, chatGroupID int, ident models.Identity) (bool, error)
	ListForIdentity(ctx context.Context, ident models.Identity) ([]models.ChatGroup, error)
}

// ChatGroupRepo is a sqlx implementation of ChatGroupRepository.
type ChatGroupRepo struct {
	db *sqlx.DB
}

// NewChatGroupRepo constructs a ChatGroupRepo.
func NewChatGroupRepo(db *sqlx.DB) *ChatGroupRepo {
	return &ChatGroupRepo{db: db}
}

const chatGroupColumns = `id, student_id, association_id, last_message_at, created_at`

// CreateOrGet returns the group for a (student, association) pair, creating
// it on first contact. The unique constraint keeps concurrent first contacts
// from producing two groups.
func (r *ChatGroupRepo) CreateOrGet(ctx context.Context, studentID, associationID int) (models.ChatGroup, error) {
	var group models.ChatGroup
	query := `SELECT ` + chatGroupColumns + ` FROM chat_groups WHERE student_id=$1 AND association_id=$2`
	err := r.db.GetContext(ctx, &group, query, studentID, associationID)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.ChatGroup{}, err
	}

	insert := `INSERT INTO chat_groups (student_id, association_id) VALUES ($1, $2)
        ON CONFLICT (student_id, association_id) DO UPDATE SET student_id = EXCLUDED.student_id
        RETURNING ` + chatGroupColumns
	err = r.db.GetContext(ctx, &group, insert, studentID, associationID)
	return group, err
}

// Get fetches a chat group by id.
func (r *ChatGroupRepo) Get(ctx context.Context, chatGroupID int) (models.ChatGroup, error) {
	var group models.ChatGroup
	err := r.db.GetContext(ctx, &group, `SELECT `+chatGroupColumns+` FROM chat_groups WHERE id=$1`, chatGroupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatGroup{}, ErrChatGroupNotFound
	}
	return group, err
}

// IsParticipant checks whether the identity is one side of the group.
func (r *ChatGroupRepo) IsParticipant(ctx context.Context, chatGroupID int, ident models.Identity) (bool, error) {
	column := "student_id"
	if ident.Type == models.SenderAssociation {
		column = "association_id"
	}
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_groups WHERE id=$1 AND `+column+`=$2)`, chatGroupID, ident.ProfileID())
	return exists, err
}

// ListForIdentity returns the identity's groups, most recent activity first.
func (r *ChatGroupRepo) ListForIdentity(ctx context.Context, ident models.Identity) ([]models.ChatGroup, error) {
	column := "student_id"
	if ident.Type == models.SenderAssociation {
		column = "association_id"
	}
	query := `SELECT ` + chatGroupColumns + ` FROM chat_groups WHERE ` + column + `=$1
        ORDER BY last_message_at DESC NULLS LAST, created_at DESC`
	var groups []models.ChatGroup
	err := r.db.SelectContext(ctx, &groups, query, ident.ProfileID())
	return groups, err
}
