package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

var ErrIdentityNotFound = errors.New("identity not found")

// ProfileRepository resolves platform user accounts to their chat identity.
type ProfileRepository interface {
	FindStudentByUserID(ctx context.Context, userID int) (models.Student, error)
	FindAssociationByUserID(ctx context.Context, userID int) (models.Association, error)
	ResolveIdentity(ctx context.Context, userID int) (models.Identity, error)
	GetStudent(ctx context.Context, studentID int) (models.Student, error)
	GetAssociation(ctx context.Context, associationID int) (models.Association, error)
}

// ProfileRepo is a sqlx implementation of ProfileRepository.
type ProfileRepo struct {
	db *sqlx.DB
}

// NewProfileRepo constructs a ProfileRepo.
func NewProfileRepo(db *sqlx.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// FindStudentByUserID fetches the student profile owned by a user account.
func (r *ProfileRepo) FindStudentByUserID(ctx context.Context, userID int) (models.Student, error) {
	var student models.Student
	err := r.db.GetContext(ctx, &student, `SELECT id, user_id, full_name, avatar_url FROM students WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Student{}, ErrIdentityNotFound
	}
	return student, err
}

// FindAssociationByUserID fetches the association profile owned by a user account.
func (r *ProfileRepo) FindAssociationByUserID(ctx context.Context, userID int) (models.Association, error) {
	var association models.Association
	err := r.db.GetContext(ctx, &association, `SELECT id, user_id, name, logo_url FROM associations WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Association{}, ErrIdentityNotFound
	}
	return association, err
}

// ResolveIdentity resolves a user account to exactly one chat identity.
// A user owns either a student profile or an association profile, never both.
func (r *ProfileRepo) ResolveIdentity(ctx context.Context, userID int) (models.Identity, error) {
	student, err := r.FindStudentByUserID(ctx, userID)
	if err == nil {
		return models.Identity{UserID: userID, Type: models.SenderStudent, Student: &student}, nil
	}
	if !errors.Is(err, ErrIdentityNotFound) {
		return models.Identity{}, err
	}

	association, err := r.FindAssociationByUserID(ctx, userID)
	if err != nil {
		return models.Identity{}, err
	}
	return models.Identity{UserID: userID, Type: models.SenderAssociation, Association: &association}, nil
}

// GetStudent fetches a student profile by id.
func (r *ProfileRepo) GetStudent(ctx context.Context, studentID int) (models.Student, error) {
	var student models.Student
	err := r.db.GetContext(ctx, &student, `SELECT id, user_id, full_name, avatar_url FROM students WHERE id=$1`, studentID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Student{}, ErrIdentityNotFound
	}
	return student, err
}

// GetAssociation fetches an association profile by id.
func (r *ProfileRepo) GetAssociation(ctx context.Context, associationID int) (models.Association, error) {
	var association models.Association
	err := r.db.GetContext(ctx, &association, `SELECT id, user_id, name, logo_url FROM associations WHERE id=$1`, associationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Association{}, ErrIdentityNotFound
	}
	return association, err
}
