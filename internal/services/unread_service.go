package services

import (
	"context"
	"log"

	"campus-chat-service/internal/events"
	"campus-chat-service/internal/repositories"
)

// UnreadSyncer recomputes a user's unread total and pushes it to their
// personal channel.
type UnreadSyncer interface {
	Recompute(ctx context.Context, userID int) (int, error)
}

// UnreadService derives unread counts from persisted message state. There is
// no stored counter to keep consistent: every call counts fresh.
type UnreadService struct {
	profiles    repositories.ProfileRepository
	messages    repositories.MessageRepository
	broadcaster events.Broadcaster
}

// NewUnreadService constructs an UnreadService.
func NewUnreadService(profiles repositories.ProfileRepository, messages repositories.MessageRepository, broadcaster events.Broadcaster) *UnreadService {
	return &UnreadService{profiles: profiles, messages: messages, broadcaster: broadcaster}
}

// Count returns the user's current unread total without publishing.
func (s *UnreadService) Count(ctx context.Context, userID int) (int, error) {
	ident, err := s.profiles.ResolveIdentity(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.messages.CountUnread(ctx, ident)
}

// Recompute counts the user's unread messages and pushes the result to
// user:{id}. The push is best-effort: a failed publish is logged and the
// fresh count is still returned.
func (s *UnreadService) Recompute(ctx context.Context, userID int) (int, error) {
	count, err := s.Count(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.broadcaster.Publish(ctx, events.UserChannel(userID), events.UnreadCountChanged(userID, count)); err != nil {
		log.Printf("unread count publish failed user=%d: %v", userID, err)
	}
	return count, nil
}

var _ UnreadSyncer = (*UnreadService)(nil)
