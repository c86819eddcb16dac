package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/domain"
)

// Event types
const (
	TypeWordLearned   = "word.learned"
	TypeLeechDetected = "card.leech_detected"
	TypeCardMastered  = "card.mastered"
	TypeReviewsDue    = "reviews.due"
)

// Event is something that happened to one learner.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type constants
	Type string `json:"type"`

	// UserID is the learner the event belongs to
	UserID uuid.UUID `json:"user_id"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// WordLearnedPayload is the payload of TypeWordLearned.
type WordLearnedPayload struct {
	WordID    domain.WordID `json:"word_id"`
	NextDueAt time.Time     `json:"next_due_at"`
}

// LeechDetectedPayload is the payload of TypeLeechDetected.
type LeechDetectedPayload struct {
	WordID     domain.WordID `json:"word_id"`
	LeechCount int           `json:"leech_count"`
}

// CardMasteredPayload is the payload of TypeCardMastered.
type CardMasteredPayload struct {
	WordID       domain.WordID `json:"word_id"`
	IntervalDays int           `json:"interval_days"`
}

// ReviewsDuePayload is the payload of TypeReviewsDue.
type ReviewsDuePayload struct {
	DueCount int `json:"due_count"`
}

// NewEvent creates an Event with the given type and payload.
func NewEvent(eventType string, userID uuid.UUID, payload any, now time.Time) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: now,
	}, nil
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
