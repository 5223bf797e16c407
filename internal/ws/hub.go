package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/samber/lo"

	"campus-chat-service/internal/events"
	"campus-chat-service/internal/observability"
)

// Hub maps channels to the clients currently subscribed to them and pushes
// events over the websocket transport. Subscriptions are session state only:
// they exist from Join until Leave or the client's removal on disconnect.
type Hub struct {
	mu       sync.RWMutex
	channels map[events.Channel]map[*Client]struct{}
	byClient map[*Client]map[events.Channel]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[events.Channel]map[*Client]struct{}),
		byClient: make(map[*Client]map[events.Channel]struct{}),
	}
}

// Join subscribes a client to a channel.
func (h *Hub) Join(client *Client, channel events.Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]struct{})
	}
	h.channels[channel][client] = struct{}{}
	if _, ok := h.byClient[client]; !ok {
		h.byClient[client] = make(map[events.Channel]struct{})
	}
	h.byClient[client][channel] = struct{}{}
}

// Leave unsubscribes a client from a channel.
func (h *Hub) Leave(client *Client, channel events.Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(client, channel)
}

func (h *Hub) leaveLocked(client *Client, channel events.Channel) {
	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}
	if chans, ok := h.byClient[client]; ok {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(h.byClient, client)
		}
	}
}

// RemoveClient drops the client from every channel it joined.
func (h *Hub) RemoveClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel := range h.byClient[client] {
		h.leaveLocked(client, channel)
	}
}

// Members returns the clients currently subscribed to a channel.
func (h *Hub) Members(channel events.Channel) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(h.channels[channel])
}

// Publish sends the event to every subscriber of the channel. A failed
// write evicts the dead client; delivery to the rest continues. Publish
// never fails the triggering operation.
func (h *Hub) Publish(ctx context.Context, channel events.Channel, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	for _, client := range h.Members(channel) {
		if err := client.Send(payload); err != nil {
			log.Printf("websocket write error channel=%s user=%d: %v", channel, client.UserID, err)
			observability.IncBroadcastFailure()
			client.Close()
			h.RemoveClient(client)
		}
	}
	observability.IncWSEvent(string(event.Kind))
	return nil
}

var _ events.Broadcaster = (*Hub)(nil)
