package models

// SenderType discriminates which side of a conversation a profile is on.
type SenderType string

const (
	SenderStudent     SenderType = "student"
	SenderAssociation SenderType = "association"
)

// Student is the student-side profile linked to a platform user account.
type Student struct {
	ID        int    `db:"id" json:"id"`
	UserID    int    `db:"user_id" json:"user_id"`
	FullName  string `db:"full_name" json:"full_name"`
	AvatarURL string `db:"avatar_url" json:"avatar_url,omitempty"`
}

// Association is the association-side profile linked to a platform user account.
type Association struct {
	ID      int    `db:"id" json:"id"`
	UserID  int    `db:"user_id" json:"user_id"`
	Name    string `db:"name" json:"name"`
	LogoURL string `db:"logo_url" json:"logo_url,omitempty"`
}

// Identity is the resolved chat identity of an authenticated user: exactly
// one of Student or Association is set.
type Identity struct {
	UserID      int
	Type        SenderType
	Student     *Student
	Association *Association
}

// ProfileID returns the domain profile id behind the identity.
func (i Identity) ProfileID() int {
	if i.Type == SenderStudent {
		return i.Student.ID
	}
	return i.Association.ID
}

// DisplayName returns the human-readable name to attach to outbound payloads.
func (i Identity) DisplayName() string {
	if i.Type == SenderStudent {
		return i.Student.FullName
	}
	return i.Association.Name
}

// AvatarURL returns the avatar or logo for outbound payloads.
func (i Identity) AvatarURL() string {
	if i.Type == SenderStudent {
		return i.Student.AvatarURL
	}
	return i.Association.LogoURL
}
