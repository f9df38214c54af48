package league

import "context"

// Repository describes league persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	// GetForUpdate reads the league and holds it exclusively until the
	// surrounding unit of work ends.
	GetForUpdate(ctx context.Context, leagueID string) (League, bool, error)
	ListBySeason(ctx context.Context, seasonID string) ([]League, error)
	ListByDraftStatus(ctx context.Context, status DraftStatus) ([]League, error)
	UpdateDraft(ctx context.Context, item League) error

	// ListMembers returns members ordered by draft position, then id.
	ListMembers(ctx context.Context, leagueID string) ([]Member, error)
	UpdateDraftPositions(ctx context.Context, leagueID string, positions map[string]int) error
	UpdateStandings(ctx context.Context, leagueID string, members []Member) error
}
