package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/platform/id"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
)

// EventPublisher delivers domain events after the transition committed.
type EventPublisher interface {
	Publish(ctx context.Context, evt event.Event) error
}

type noopEventPublisher struct{}

func (noopEventPublisher) Publish(_ context.Context, _ event.Event) error {
	return nil
}

func NewNoopEventPublisher() EventPublisher {
	return noopEventPublisher{}
}

// eventEmitter stamps ids and timestamps and swallows delivery errors.
type eventEmitter struct {
	publisher EventPublisher
	ids       id.Generator
	logger    *logging.Logger
}

func newEventEmitter(publisher EventPublisher, ids id.Generator, logger *logging.Logger) eventEmitter {
	if publisher == nil {
		publisher = NewNoopEventPublisher()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return eventEmitter{publisher: publisher, ids: ids, logger: logger}
}

func (e eventEmitter) emit(ctx context.Context, now time.Time, events ...event.Event) {
	for _, evt := range events {
		if evt.ID == "" {
			eventID, err := e.ids.NewID()
			if err != nil {
				e.logger.WarnContext(ctx, "generate event id failed", "event", evt.Name, "error", err)
				continue
			}
			evt.ID = eventID
		}
		if evt.OccurredAt.IsZero() {
			evt.OccurredAt = now
		}
		if err := e.publisher.Publish(ctx, evt); err != nil {
			e.logger.WarnContext(ctx, "publish event failed",
				"event", evt.Name,
				"event_id", evt.ID,
				"league_id", evt.LeagueID,
				"episode_id", evt.EpisodeID,
				"error", err,
			)
		}
	}
}
