package pick

import "context"

type Repository interface {
	Get(ctx context.Context, leagueID, memberID, episodeID string) (WeeklyPick, bool, error)
	// Upsert writes the pick keyed by (league, member, episode).
	Upsert(ctx context.Context, item WeeklyPick) error
	ListByEpisode(ctx context.Context, episodeID string) ([]WeeklyPick, error)
	ListByLeague(ctx context.Context, leagueID string) ([]WeeklyPick, error)
	// ApplyEpisodePoints sets points_earned on every pick of the episode from
	// totals, writing zero for castaways missing from totals. It returns the
	// number of picks updated.
	ApplyEpisodePoints(ctx context.Context, episodeID string, totals map[string]int) (int, error)
}
