package season

import (
	"context"
	"time"
)

// Repository is the read model for seasons, episodes and castaways plus the
// two transitions the engine owns: episode scored and castaway eliminated.
type Repository interface {
	GetSeason(ctx context.Context, seasonID string) (Season, bool, error)

	GetEpisode(ctx context.Context, episodeID string) (Episode, bool, error)
	// ListWaiverReadyEpisodes returns scored episodes whose waiver window closed at or before now.
	ListWaiverReadyEpisodes(ctx context.Context, now time.Time) ([]Episode, error)
	MarkEpisodeScored(ctx context.Context, episodeID string) error

	GetCastaway(ctx context.Context, castawayID string) (Castaway, bool, error)
	// ListCastaways returns the season's castaways ordered by name, then id.
	ListCastaways(ctx context.Context, seasonID string) ([]Castaway, error)
	// EliminateCastaways marks active castaways eliminated at episodeID and
	// returns the ids that actually changed.
	EliminateCastaways(ctx context.Context, castawayIDs []string, episodeID string) ([]string, error)
}
