package events

import (
	"context"
	"log"
	"strings"

	"campus-chat-service/internal/observability"
	"campus-chat-service/internal/rabbitmq"
)

// Fanout delivers events to the live transport and mirrors them to the
// platform exchange so out-of-process consumers (push, digests) see the
// same stream. Mirror failures are logged and never propagated.
type Fanout struct {
	live      Broadcaster
	publisher rabbitmq.Publisher
}

// NewFanout wraps a live broadcaster with an AMQP mirror.
func NewFanout(live Broadcaster, publisher rabbitmq.Publisher) *Fanout {
	return &Fanout{live: live, publisher: publisher}
}

// Publish pushes the event to channel subscribers, then mirrors it.
func (f *Fanout) Publish(ctx context.Context, channel Channel, event Event) error {
	err := f.live.Publish(ctx, channel, event)

	if f.publisher != nil {
		envelope := rabbitmq.EventEnvelope{
			EventType: "chat_events",
			EventName: string(event.Kind),
			Channel:   string(channel),
			Payload:   event,
		}
		if mirrorErr := f.publisher.Publish(ctx, routingKey(channel), envelope); mirrorErr != nil {
			observability.IncAMQPPublishError()
			log.Printf("event mirror publish failed channel=%s kind=%s: %v", channel, event.Kind, mirrorErr)
		}
	}
	return err
}

func routingKey(channel Channel) string {
	switch {
	case channel == PresenceChannel:
		return "chat_events.presence"
	case strings.HasPrefix(string(channel), "user:"):
		return "chat_events.users"
	default:
		return "chat_events.groups"
	}
}
