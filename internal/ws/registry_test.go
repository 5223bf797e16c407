package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryFirstConnectionCrossesOnlineEdge(t *testing.T) {
	registry := NewRegistry()

	first := NewClient(1, nil)
	second := NewClient(1, nil)

	assert.True(t, registry.Register(first))
	assert.False(t, registry.Register(second))
	assert.True(t, registry.IsOnline(1))
	assert.Equal(t, 2, registry.ConnectionCount(1))

	assert.False(t, registry.Unregister(first))
	assert.True(t, registry.IsOnline(1))
	assert.True(t, registry.Unregister(second))
	assert.False(t, registry.IsOnline(1))
	assert.Equal(t, 0, registry.ConnectionCount(1))
}

func TestRegistryUnregisterUnknownClient(t *testing.T) {
	registry := NewRegistry()

	assert.False(t, registry.Unregister(NewClient(7, nil)))

	client := NewClient(7, nil)
	require.True(t, registry.Register(client))
	require.True(t, registry.Unregister(client))
	// second removal of the same client must not report another edge
	assert.False(t, registry.Unregister(client))
}

func TestRegistryOneEdgePairPerUserUnderConcurrency(t *testing.T) {
	registry := NewRegistry()

	const conns = 32
	clients := make([]*Client, conns)
	for i := range clients {
		clients[i] = NewClient(42, nil)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	onlineEdges := 0

	for _, client := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if registry.Register(c) {
				mu.Lock()
				onlineEdges++
				mu.Unlock()
			}
		}(client)
	}
	wg.Wait()

	assert.Equal(t, 1, onlineEdges)
	assert.Equal(t, conns, registry.ConnectionCount(42))

	offlineEdges := 0
	for _, client := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if registry.Unregister(c) {
				mu.Lock()
				offlineEdges++
				mu.Unlock()
			}
		}(client)
	}
	wg.Wait()

	assert.Equal(t, 1, offlineEdges)
	assert.False(t, registry.IsOnline(42))
}

func TestRegistryOnlineUsers(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NewClient(1, nil))
	registry.Register(NewClient(2, nil))

	assert.ElementsMatch(t, []int{1, 2}, registry.OnlineUsers())
}

func TestRegistryTracksUsersIndependently(t *testing.T) {
	registry := NewRegistry()

	a := NewClient(1, nil)
	b := NewClient(2, nil)
	require.True(t, registry.Register(a))
	require.True(t, registry.Register(b))

	require.True(t, registry.Unregister(a))
	assert.False(t, registry.IsOnline(1))
	assert.True(t, registry.IsOnline(2))
}
