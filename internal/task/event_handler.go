package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/wordwise-srs/internal/events"
)

// eventDelivery hands one event to one handler.
type eventDelivery struct {
	id      uuid.UUID
	event   *events.Event
	handler events.EventHandler
}

func (d *eventDelivery) ID() uuid.UUID { return d.id }

func (d *eventDelivery) Type() string { return TaskTypeEventDelivery }

func (d *eventDelivery) Execute(ctx context.Context) error {
	if err := d.handler.HandleEvent(ctx, d.event); err != nil {
		return fmt.Errorf("event %s (%s): %w", d.event.ID, d.event.Type, err)
	}
	return nil
}

// AsyncHandler is an events.EventHandler that queues every event for
// delivery to next on a Submitter, returning as soon as it is queued.
type AsyncHandler struct {
	next   events.EventHandler
	runner Submitter
	logger *slog.Logger
}

var _ events.EventHandler = (*AsyncHandler)(nil)

// NewAsyncHandler wraps next so it runs on runner.
func NewAsyncHandler(next events.EventHandler, runner Submitter, logger *slog.Logger) *AsyncHandler {
	if next == nil {
		panic("next handler cannot be nil")
	}
	if runner == nil {
		panic("runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AsyncHandler{
		next:   next,
		runner: runner,
		logger: logger.With(slog.String("component", "async_event_handler")),
	}
}

// HandleEvent queues the event. The caller's context is not carried over:
// delivery outlives the request that produced the event.
func (h *AsyncHandler) HandleEvent(_ context.Context, event *events.Event) error {
	delivery := &eventDelivery{
		id:      uuid.New(),
		event:   event,
		handler: h.next,
	}

	if err := h.runner.Submit(delivery); err != nil {
		h.logger.Warn("failed to queue event",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.Type),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to queue event %s: %w", event.ID, err)
	}
	return nil
}
