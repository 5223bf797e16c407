package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"campus-chat-service/internal/events"
	"campus-chat-service/internal/models"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/telemetry"
)

var (
	// ErrUnauthenticated means the sender's account has no chat identity.
	ErrUnauthenticated = errors.New("sender has no chat identity")
	// ErrEmptyContent means the message body was blank after trimming.
	ErrEmptyContent = errors.New("empty message content")
	// ErrNotParticipant means the sender is not a side of the target group.
	// Carried back to the caller only; other participants never see it.
	ErrNotParticipant = errors.New("sender is not a participant")
)

// unreadSyncTimeout bounds the fire-and-forget unread recompute after a send.
const unreadSyncTimeout = 10 * time.Second

// MessageService is the ingestion pipeline for new chat messages: it
// authorizes the sender, persists the message, fans it out to the group
// channel, and nudges the recipient's unread counter.
type MessageService struct {
	profiles    repositories.ProfileRepository
	groups      repositories.ChatGroupRepository
	messages    repositories.MessageRepository
	broadcaster events.Broadcaster
	unread      UnreadSyncer
	audit       *telemetry.AuditEmitter
}

// NewMessageService constructs a MessageService.
func NewMessageService(profiles repositories.ProfileRepository, groups repositories.ChatGroupRepository, messages repositories.MessageRepository, broadcaster events.Broadcaster, unread UnreadSyncer, audit *telemetry.AuditEmitter) *MessageService {
	return &MessageService{
		profiles:    profiles,
		groups:      groups,
		messages:    messages,
		broadcaster: broadcaster,
		unread:      unread,
		audit:       audit,
	}
}

// Send runs the full pipeline for one inbound message and returns it
// enriched with the sender's display info. Persistence failures fail the
// call; broadcast and unread-sync failures do not.
func (s *MessageService) Send(ctx context.Context, chatGroupID, senderUserID int, content string) (models.OutboundMessage, error) {
	ident, err := s.profiles.ResolveIdentity(ctx, senderUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrIdentityNotFound) {
			s.audit.Emit(ctx, "warn", "send rejected: no chat identity", &senderUserID, chatGroupID)
			return models.OutboundMessage{}, ErrUnauthenticated
		}
		return models.OutboundMessage{}, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return models.OutboundMessage{}, ErrEmptyContent
	}

	group, err := s.groups.Get(ctx, chatGroupID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatGroupNotFound) {
			log.Printf("send aborted: chat group %d not found (sender user=%d)", chatGroupID, senderUserID)
		}
		return models.OutboundMessage{}, err
	}
	if !isParticipant(group, ident) {
		s.audit.Emit(ctx, "warn", "send dropped: sender not a participant", &senderUserID, chatGroupID)
		return models.OutboundMessage{}, ErrNotParticipant
	}

	msg, err := s.messages.Create(ctx, chatGroupID, senderUserID, content)
	if err != nil {
		return models.OutboundMessage{}, err
	}

	outbound := models.OutboundMessage{
		ChatMessage:  msg,
		SenderName:   ident.DisplayName(),
		SenderAvatar: ident.AvatarURL(),
		SenderType:   ident.Type,
	}
	if err := s.broadcaster.Publish(ctx, events.ChatGroupChannel(chatGroupID), events.MessageReceived(outbound)); err != nil {
		// The message is persisted; the recipient sees it on next fetch.
		log.Printf("message broadcast failed group=%d message=%d: %v", chatGroupID, msg.ID, err)
	}

	go s.syncPeerUnread(group, ident)

	return outbound, nil
}

// MarkRead flips every unread peer message in the group to read, notifies
// the group channel, and refreshes the reader's unread counter.
func (s *MessageService) MarkRead(ctx context.Context, chatGroupID, readerUserID int) error {
	ident, err := s.profiles.ResolveIdentity(ctx, readerUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrIdentityNotFound) {
			return ErrUnauthenticated
		}
		return err
	}

	group, err := s.groups.Get(ctx, chatGroupID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatGroupNotFound) {
			log.Printf("mark-read aborted: chat group %d not found (reader user=%d)", chatGroupID, readerUserID)
		}
		return err
	}
	if !isParticipant(group, ident) {
		s.audit.Emit(ctx, "warn", "mark-read dropped: not a participant", &readerUserID, chatGroupID)
		return ErrNotParticipant
	}

	changed, err := s.messages.MarkGroupRead(ctx, chatGroupID, readerUserID)
	if err != nil {
		return err
	}
	if changed == 0 {
		return nil
	}

	if err := s.broadcaster.Publish(ctx, events.ChatGroupChannel(chatGroupID), events.MessagesMarkedRead(chatGroupID)); err != nil {
		log.Printf("marked-read broadcast failed group=%d: %v", chatGroupID, err)
	}
	if _, err := s.unread.Recompute(ctx, readerUserID); err != nil {
		log.Printf("unread recompute failed user=%d: %v", readerUserID, err)
	}
	return nil
}

// syncPeerUnread refreshes the other participant's unread counter after a
// send. Runs detached from the request: its failure never reaches the
// sender, and it is bounded by its own timeout.
func (s *MessageService) syncPeerUnread(group models.ChatGroup, sender models.Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), unreadSyncTimeout)
	defer cancel()

	peerUserID, err := s.peerUserID(ctx, group, sender)
	if err != nil {
		log.Printf("peer lookup failed group=%d: %v", group.ID, err)
		return
	}
	if _, err := s.unread.Recompute(ctx, peerUserID); err != nil {
		log.Printf("unread recompute failed user=%d group=%d: %v", peerUserID, group.ID, err)
	}
}

func (s *MessageService) peerUserID(ctx context.Context, group models.ChatGroup, sender models.Identity) (int, error) {
	if sender.Type == models.SenderStudent {
		association, err := s.profiles.GetAssociation(ctx, group.AssociationID)
		if err != nil {
			return 0, err
		}
		return association.UserID, nil
	}
	student, err := s.profiles.GetStudent(ctx, group.StudentID)
	if err != nil {
		return 0, err
	}
	return student.UserID, nil
}

func isParticipant(group models.ChatGroup, ident models.Identity) bool {
	if ident.Type == models.SenderStudent {
		return group.StudentID == ident.Student.ID
	}
	return group.AssociationID == ident.Association.ID
}
