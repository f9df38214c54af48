package waiver

import "context"

type Repository interface {
	UpsertRanking(ctx context.Context, item Ranking) error
	ListRankings(ctx context.Context, leagueID, episodeID string) ([]Ranking, error)

	// HasResults reports whether settlement already ran for (league, episode).
	HasResults(ctx context.Context, leagueID, episodeID string) (bool, error)
	InsertResult(ctx context.Context, item Result) error
	ListResults(ctx context.Context, leagueID, episodeID string) ([]Result, error)
}
