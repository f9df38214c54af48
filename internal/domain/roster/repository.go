package roster

import (
	"context"
	"time"
)

type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Entry, error)
	ListHeldByLeague(ctx context.Context, leagueID string) ([]Entry, error)
	ListHeldByMember(ctx context.Context, leagueID, memberID string) ([]Entry, error)
	// CountDraftPicks counts draft and auto-draft entries, dropped or not.
	CountDraftPicks(ctx context.Context, leagueID string) (int, error)
	// Insert appends an entry. It fails with store.ErrConflict when the
	// castaway is already held in the league and with ErrRosterFull when the
	// member holds rosterCap entries.
	Insert(ctx context.Context, entry Entry, rosterCap int) error
	// Drop stamps dropped_at on a held entry. Dropping twice is a conflict.
	Drop(ctx context.Context, entryID string, at time.Time) error
}
