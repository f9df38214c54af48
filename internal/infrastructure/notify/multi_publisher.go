package notify

import (
	"context"
	"errors"

	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	"github.com/riskibarqy/castaway-league/internal/usecase"
)

// MultiPublisher delivers every event to each sink and joins their errors.
// A failing sink does not stop the others.
type MultiPublisher struct {
	sinks []usecase.EventPublisher
}

func NewMultiPublisher(sinks ...usecase.EventPublisher) *MultiPublisher {
	kept := make([]usecase.EventPublisher, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			kept = append(kept, sink)
		}
	}
	return &MultiPublisher{sinks: kept}
}

func (m *MultiPublisher) Publish(ctx context.Context, evt event.Event) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiPublisher) Len() int {
	return len(m.sinks)
}

// LogPublisher writes events to the structured log. It is the sink used when
// no broker is configured.
type LogPublisher struct {
	logger *logging.Logger
}

func NewLogPublisher(logger *logging.Logger) *LogPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(ctx context.Context, evt event.Event) error {
	p.logger.InfoContext(ctx, "league event",
		"event", evt.Name,
		"event_id", evt.ID,
		"league_id", evt.LeagueID,
		"episode_id", evt.EpisodeID,
		"castaway_id", evt.CastawayID,
		"payload", evt.Payload,
	)
	return nil
}
