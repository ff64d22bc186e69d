package services

import (
	"context"

	"go.uber.org/zap"

	"prepcoach/application/ports"
	"prepcoach/domain/events"
)

// EventSource is any aggregate that buffers domain events until they are persisted
type EventSource interface {
	GetUncommittedEvents() []events.DomainEvent
	MarkEventsAsCommitted()
}

// realtimeEvents are pushed to the user's open connections
var realtimeEvents = map[string]bool{
	events.TypeNodesUnlocked:          true,
	events.TypeJourneyCompleted:       true,
	events.TypeParentMilestoneSynced:  true,
	events.TypeInterviewStatusChanged: true,
}

// Notification is the message shape sent over WebSocket connections
type Notification struct {
	Type  string             `json:"type"`
	Event events.DomainEvent `json:"event"`
}

// EventDispatcher publishes the events of a persisted aggregate. Publishing
// happens after the write, so failures are logged and never undo the write.
type EventDispatcher struct {
	publisher ports.EventPublisher
	notifier  ports.Notifier
	logger    *zap.Logger
}

// NewEventDispatcher creates a dispatcher. notifier may be nil.
func NewEventDispatcher(publisher ports.EventPublisher, notifier ports.Notifier, logger *zap.Logger) *EventDispatcher {
	return &EventDispatcher{
		publisher: publisher,
		notifier:  notifier,
		logger:    logger,
	}
}

// Dispatch publishes and clears the source's uncommitted events
func (d *EventDispatcher) Dispatch(ctx context.Context, userID string, source EventSource) {
	pending := source.GetUncommittedEvents()
	source.MarkEventsAsCommitted()
	d.Publish(ctx, userID, pending...)
}

// Publish sends events that do not belong to an aggregate
func (d *EventDispatcher) Publish(ctx context.Context, userID string, evts ...events.DomainEvent) {
	if len(evts) == 0 {
		return
	}

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, evts...); err != nil {
			d.logger.Warn("Failed to publish domain events",
				zap.Int("count", len(evts)),
				zap.Error(err),
			)
		}
	}

	if d.notifier == nil || userID == "" {
		return
	}
	for _, e := range evts {
		if !realtimeEvents[e.GetEventType()] {
			continue
		}
		if err := d.notifier.NotifyUser(ctx, userID, Notification{Type: e.GetEventType(), Event: e}); err != nil {
			d.logger.Debug("Failed to notify user",
				zap.String("user_id", userID),
				zap.String("event_type", e.GetEventType()),
				zap.Error(err),
			)
		}
	}
}
