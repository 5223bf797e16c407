package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"campus-chat-service/internal/events"
	"campus-chat-service/internal/models"
	"campus-chat-service/internal/rabbitmq"
	"campus-chat-service/internal/repositories"
	"campus-chat-service/internal/services"
)

type ProfileRepositoryMock struct {
	mock.Mock
}

func (m *ProfileRepositoryMock) FindStudentByUserID(ctx context.Context, userID int) (models.Student, error) {
	args := m.Called(ctx, userID)
	var student models.Student
	if val := args.Get(0); val != nil {
		student = val.(models.Student)
	}
	return student, args.Error(1)
}

func (m *ProfileRepositoryMock) FindAssociationByUserID(ctx context.Context, userID int) (models.Association, error) {
	args := m.Called(ctx, userID)
	var association models.Association
	if val := args.Get(0); val != nil {
		association = val.(models.Association)
	}
	return association, args.Error(1)
}

func (m *ProfileRepositoryMock) ResolveIdentity(ctx context.Context, userID int) (models.Identity, error) {
	args := m.Called(ctx, userID)
	var ident models.Identity
	if val := args.Get(0); val != nil {
		ident = val.(models.Identity)
	}
	return ident, args.Error(1)
}

func (m *ProfileRepositoryMock) GetStudent(ctx context.Context, studentID int) (models.Student, error) {
	args := m.Called(ctx, studentID)
	var student models.Student
	if val := args.Get(0); val != nil {
		student = val.(models.Student)
	}
	return student, args.Error(1)
}

func (m *ProfileRepositoryMock) GetAssociation(ctx context.Context, associationID int) (models.Association, error) {
	args := m.Called(ctx, associationID)
	var association models.Association
	if val := args.Get(0); val != nil {
		association = val.(models.Association)
	}
	return association, args.Error(1)
}

type ChatGroupRepositoryMock struct {
	mock.Mock
}

func (m *ChatGroupRepositoryMock) CreateOrGet(ctx context.Context, studentID, associationID int) (models.ChatGroup, error) {
	args := m.Called(ctx, studentID, associationID)
	var group models.ChatGroup
	if val := args.Get(0); val != nil {
		group = val.(models.ChatGroup)
	}
	return group, args.Error(1)
}

func (m *ChatGroupRepositoryMock) Get(ctx context.Context, chatGroupID int) (models.ChatGroup, error) {
	args := m.Called(ctx, chatGroupID)
	var group models.ChatGroup
	if val := args.Get(0); val != nil {
		group = val.(models.ChatGroup)
	}
	return group, args.Error(1)
}

func (m *ChatGroupRepositoryMock) IsParticipant(ctx context.Context, chatGroupID int, ident models.Identity) (bool, error) {
	args := m.Called(ctx, chatGroupID, ident)
	return args.Bool(0), args.Error(1)
}

func (m *ChatGroupRepositoryMock) ListForIdentity(ctx context.Context, ident models.Identity) ([]models.ChatGroup, error) {
	args := m.Called(ctx, ident)
	var groups []models.ChatGroup
	if val := args.Get(0); val != nil {
		groups = val.([]models.ChatGroup)
	}
	return groups, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, chatGroupID, senderID int, content string) (models.ChatMessage, error) {
	args := m.Called(ctx, chatGroupID, senderID, content)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListForGroup(ctx context.Context, chatGroupID int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, chatGroupID)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkGroupRead(ctx context.Context, chatGroupID, readerUserID int) (int, error) {
	args := m.Called(ctx, chatGroupID, readerUserID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, ident models.Identity) (int, error) {
	args := m.Called(ctx, ident)
	return args.Int(0), args.Error(1)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) Publish(ctx context.Context, channel events.Channel, event events.Event) error {
	args := m.Called(ctx, channel, event)
	return args.Error(0)
}

type UnreadSyncerMock struct {
	mock.Mock
}

func (m *UnreadSyncerMock) Recompute(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repositories.ProfileRepository = (*ProfileRepositoryMock)(nil)
var _ repositories.ChatGroupRepository = (*ChatGroupRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ events.Broadcaster = (*BroadcasterMock)(nil)
var _ services.UnreadSyncer = (*UnreadSyncerMock)(nil)
var _ rabbitmq.Publisher = (*PublisherMock)(nil)
