package ws

import (
	"sync"

	"github.com/samber/lo"
)

// Registry tracks which users currently have live connections. It is the
// single source of presence truth, in-memory only: state is lost on restart
// and rebuilt as clients reconnect.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int]map[*Client]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byUser: make(map[int]map[*Client]struct{})}
}

// Register adds a connection. Reports true when this is the user's first
// live connection, i.e. the user just crossed the offline->online edge.
func (r *Registry) Register(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.byUser[client.UserID]
	if !ok {
		conns = make(map[*Client]struct{})
		r.byUser[client.UserID] = conns
	}
	conns[client] = struct{}{}
	return len(conns) == 1
}

// Unregister removes a connection. Reports true when it was the user's last
// live connection. Idempotent: removing an unknown client reports false.
func (r *Registry) Unregister(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.byUser[client.UserID]
	if !ok {
		return false
	}
	if _, ok := conns[client]; !ok {
		return false
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(r.byUser, client.UserID)
		return true
	}
	return false
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// ConnectionCount returns the number of live connections for a user.
func (r *Registry) ConnectionCount(userID int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}

// OnlineUsers returns the ids of all users with a live connection.
func (r *Registry) OnlineUsers() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byUser)
}
