package telemetry

import (
	"context"
	"log"
	"time"

	"campus-chat-service/internal/rabbitmq"
)

// AuditEmitter records security-relevant decisions (rejected sends,
// authorization drops) on the platform audit stream.
type AuditEmitter struct {
	publisher   rabbitmq.Publisher
	routingKey  string
	service     string
	environment string
}

// AuditEnvelope is the audit-log wire format.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	UserID        *int         `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

// AuditPayload carries the audit message itself.
type AuditPayload struct {
	Level       string `json:"level"`
	Text        string `json:"text"`
	ChatGroupID int    `json:"chat_group_id,omitempty"`
}

// NewAuditEmitter constructs an emitter; a nil publisher makes Emit a no-op.
func NewAuditEmitter(publisher rabbitmq.Publisher, routingKey, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     "campus-chat-service",
		environment: environment,
	}
}

// Emit publishes one audit record. Failures are logged, never propagated.
func (e *AuditEmitter) Emit(ctx context.Context, level, text string, userID *int, chatGroupID int) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Printf("audit emit: level=%s user_id=%v chat_group_id=%d text=%q", level, userID, chatGroupID, text)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    time.Now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		UserID:        userID,
		Payload: AuditPayload{
			Level:       level,
			Text:        text,
			ChatGroupID: chatGroupID,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}
