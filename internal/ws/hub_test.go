package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-chat-service/internal/events"
)

func TestHubJoinAndLeave(t *testing.T) {
	hub := NewHub()
	client := NewClient(1, nil)
	channel := events.ChatGroupChannel(5)

	hub.Join(client, channel)
	require.Len(t, hub.Members(channel), 1)

	hub.Leave(client, channel)
	assert.Empty(t, hub.Members(channel))
}

func TestHubRemoveClientLeavesAllChannels(t *testing.T) {
	hub := NewHub()
	client := NewClient(1, nil)
	other := NewClient(2, nil)

	hub.Join(client, events.UserChannel(1))
	hub.Join(client, events.ChatGroupChannel(5))
	hub.Join(client, events.ChatGroupChannel(6))
	hub.Join(other, events.ChatGroupChannel(5))

	hub.RemoveClient(client)

	assert.Empty(t, hub.Members(events.UserChannel(1)))
	assert.Empty(t, hub.Members(events.ChatGroupChannel(6)))
	members := hub.Members(events.ChatGroupChannel(5))
	require.Len(t, members, 1)
	assert.Equal(t, other, members[0])
}

func TestHubMembersAreChannelScoped(t *testing.T) {
	hub := NewHub()
	joined := NewClient(1, nil)
	bystander := NewClient(2, nil)

	hub.Join(joined, events.ChatGroupChannel(5))
	hub.Join(bystander, events.UserChannel(2))

	members := hub.Members(events.ChatGroupChannel(5))
	require.Len(t, members, 1)
	assert.Equal(t, joined, members[0])
}

func TestHubPublishToEmptyChannel(t *testing.T) {
	hub := NewHub()

	err := hub.Publish(context.Background(), events.ChatGroupChannel(99), events.MessagesMarkedRead(99))
	assert.NoError(t, err)
}
