package services_test

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"campus-chat-service/internal/events"
	"campus-chat-service/internal/mocks"
	"campus-chat-service/internal/models"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/services"
	"campus-chat-service/internal/telemetry"
)

func studentIdentity(userID, studentID int) models.Identity {
	return models.Identity{
		UserID: userID,
		Type:   models.SenderStudent,
		Student: &models.Student{
			ID:       studentID,
			UserID:   userID,
			FullName: "Sam Student",
		},
	}
}

func associationIdentity(userID, associationID int) models.Identity {
	return models.Identity{
		UserID: userID,
		Type:   models.SenderAssociation,
		Association: &models.Association{
			ID:     associationID,
			UserID: userID,
			Name:   "Chess Club",
		},
	}
}

func newMessageService(profiles *mocks.ProfileRepositoryMock, groups *mocks.ChatGroupRepositoryMock, messages *mocks.MessageRepositoryMock, broadcaster *mocks.BroadcasterMock, unread *mocks.UnreadSyncerMock) *services.MessageService {
	audit := telemetry.NewAuditEmitter(nil, "audit.chat", "test")
	return services.NewMessageService(profiles, groups, messages, broadcaster, unread, audit)
}

func TestSendPersistsBroadcastsAndSyncsPeer(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	group := models.ChatGroup{ID: 5, StudentID: 10, AssociationID: 20}
	stored := models.ChatMessage{ID: 7, ChatGroupID: 5, SenderID: 1, Content: "Hello", SentAt: time.Now()}

	profiles.On("ResolveIdentity", mock.Anything, 1).Return(studentIdentity(1, 10), nil).Once()
	groups.On("Get", mock.Anything, 5).Return(group, nil).Once()
	messages.On("Create", mock.Anything, 5, 1, "Hello").Return(stored, nil).Once()
	broadcaster.On("Publish", mock.Anything, events.ChatGroupChannel(5), mock.MatchedBy(func(e events.Event) bool {
		return e.Kind == events.KindMessageReceived &&
			e.Message != nil &&
			e.Message.ID == 7 &&
			e.Message.SenderName == "Sam Student" &&
			e.Message.SenderType == models.SenderStudent
	})).Return(nil).Once()

	profiles.On("GetAssociation", mock.Anything, 20).Return(models.Association{ID: 20, UserID: 2}, nil).Once()
	synced := make(chan struct{})
	unread.On("Recompute", mock.Anything, 2).Return(1, nil).Once().Run(func(mock.Arguments) {
		close(synced)
	})

	msg, err := service.Send(context.Background(), 5, 1, "Hello")
	require.NoError(t, err)
	assert.Equal(t, stored, msg.ChatMessage)
	assert.Equal(t, "Sam Student", msg.SenderName)

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("peer unread sync never ran")
	}

	profiles.AssertExpectations(t)
	groups.AssertExpectations(t)
	messages.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
	unread.AssertExpectations(t)
}

func TestSendFromAssociationSyncsStudent(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	group := models.ChatGroup{ID: 5, StudentID: 10, AssociationID: 20}
	stored := models.ChatMessage{ID: 8, ChatGroupID: 5, SenderID: 2, Content: "Welcome"}

	profiles.On("ResolveIdentity", mock.Anything, 2).Return(associationIdentity(2, 20), nil).Once()
	groups.On("Get", mock.Anything, 5).Return(group, nil).Once()
	messages.On("Create", mock.Anything, 5, 2, "Welcome").Return(stored, nil).Once()
	broadcaster.On("Publish", mock.Anything, events.ChatGroupChannel(5), mock.Anything).Return(nil).Once()

	profiles.On("GetStudent", mock.Anything, 10).Return(models.Student{ID: 10, UserID: 1}, nil).Once()
	synced := make(chan struct{})
	unread.On("Recompute", mock.Anything, 1).Return(3, nil).Once().Run(func(mock.Arguments) {
		close(synced)
	})

	_, err := service.Send(context.Background(), 5, 2, "Welcome")
	require.NoError(t, err)

	select {
	case <-synced:
	case <-time.After(2 * time.Second):
		t.Fatal("peer unread sync never ran")
	}
	unread.AssertExpectations(t)
}

func TestSendRejectsNonParticipantSilently(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	// student 99 is not a side of group 5
	profiles.On("ResolveIdentity", mock.Anything, 3).Return(studentIdentity(3, 99), nil).Once()
	groups.On("Get", mock.Anything, 5).Return(models.ChatGroup{ID: 5, StudentID: 10, AssociationID: 20}, nil).Once()

	_, err := service.Send(context.Background(), 5, 3, "sneaky")
	assert.ErrorIs(t, err, services.ErrNotParticipant)

	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	broadcaster.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	unread.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	profiles.On("ResolveIdentity", mock.Anything, 1).Return(studentIdentity(1, 10), nil).Once()

	_, err := service.Send(context.Background(), 5, 1, "   ")
	assert.ErrorIs(t, err, services.ErrEmptyContent)
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRejectsUnknownIdentity(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	profiles.On("ResolveIdentity", mock.Anything, 9).Return(models.Identity{}, repositories.ErrIdentityNotFound).Once()

	_, err := service.Send(context.Background(), 5, 9, "hi")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestSendAbortsAndLogsWhenGroupMissing(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	var logged bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&logged)
	defer log.SetOutput(orig)

	profiles.On("ResolveIdentity", mock.Anything, 1).Return(studentIdentity(1, 10), nil).Once()
	groups.On("Get", mock.Anything, 42).Return(models.ChatGroup{}, repositories.ErrChatGroupNotFound).Once()

	_, err := service.Send(context.Background(), 42, 1, "hi")
	assert.ErrorIs(t, err, repositories.ErrChatGroupNotFound)
	assert.Contains(t, logged.String(), "chat group 42 not found")
	messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	broadcaster.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendPropagatesPersistenceFailure(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	profiles.On("ResolveIdentity", mock.Anything, 1).Return(studentIdentity(1, 10), nil).Once()
	groups.On("Get", mock.Anything, 5).Return(models.ChatGroup{ID: 5, StudentID: 10, AssociationID: 20}, nil).Once()
	messages.On("Create", mock.Anything, 5, 1, "hi").Return(models.ChatMessage{}, assert.AnError).Once()

	_, err := service.Send(context.Background(), 5, 1, "hi")
	assert.ErrorIs(t, err, assert.AnError)
	broadcaster.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendSurvivesBroadcastFailure(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	group := models.ChatGroup{ID: 5, StudentID: 10, AssociationID: 20}
	stored := models.ChatMessage{ID: 7, ChatGroupID: 5, SenderID: 1, Content: "hi"}

	profiles.On("ResolveIdentity", mock.Anything, 1).Return(studentIdentity(1, 10), nil).Once()
	groups.On("Get", mock.Anything, 5).Return(group, nil).Once()
	messages.On("Create", mock.Anything, 5, 1, "hi").Return(stored, nil).Once()
	broadcaster.On("Publish", mock.Anything, events.ChatGroupChannel(5), mock.Anything).Return(assert.AnError).Once()
	profiles.On("GetAssociation", mock.Anything, 20).Return(models.Association{ID: 20, UserID: 2}, nil).Maybe()
	unread.On("Recompute", mock.Anything, 2).Return(0, nil).Maybe()

	msg, err := service.Send(context.Background(), 5, 1, "hi")
	require.NoError(t, err)
	assert.Equal(t, stored, msg.ChatMessage)
}

func TestMarkReadPublishesAndRefreshesReader(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	profiles.On("ResolveIdentity", mock.Anything, 2).Return(associationIdentity(2, 20), nil).Once()
	groups.On("Get", mock.Anything, 5).Return(models.ChatGroup{ID: 5, StudentID: 10, AssociationID: 20}, nil).Once()
	messages.On("MarkGroupRead", mock.Anything, 5, 2).Return(3, nil).Once()
	broadcaster.On("Publish", mock.Anything, events.ChatGroupChannel(5), events.MessagesMarkedRead(5)).Return(nil).Once()
	unread.On("Recompute", mock.Anything, 2).Return(0, nil).Once()

	require.NoError(t, service.MarkRead(context.Background(), 5, 2))

	broadcaster.AssertExpectations(t)
	unread.AssertExpectations(t)
}

func TestMarkReadNoopWhenNothingUnread(t *testing.T) {
	profiles := new(mocks.ProfileRepositoryMock)
	groups := new(mocks.ChatGroupRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	unread := new(mocks.UnreadSyncerMock)
	service := newMessageService(profiles, groups, messages, broadcaster, unread)

	profiles.On("ResolveIdentity", mock.Anything, 2).Return(associationIdentity(2, 20), nil).Once()
	groups.On("Get", mock.Anything, 5).Return(models.ChatGroup{ID: 5, StudentID: 10, AssociationID: 20}, nil).Once()
	messages.On("MarkGroupRead", mock.Anything, 5, 2).Return(0, nil).Once()

	require.NoError(t, service.MarkRead(context.Background(), 5, 2))
	broadcaster.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	unread.AssertNotCalled(t, "Recompute", mock.Anything, mock.Anything)
}
