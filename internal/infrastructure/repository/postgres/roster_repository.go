package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
	qb "github.com/riskibarqy/castaway-league/internal/platform/querybuilder"
)

// insertUnderCapSQL writes the entry only while the member holds fewer than
// the cap. The held-castaway guard is the partial unique index
// roster_entries_held_castaway_uidx.
const insertUnderCapSQL = `
INSERT INTO roster_entries (id, league_id, member_id, castaway_id, round, pick_number, acquired_via, acquired_at)
SELECT $1, $2, $3, $4, $5, $6, $7, $8
WHERE (
    SELECT COUNT(1) FROM roster_entries
    WHERE league_id = $2 AND member_id = $3 AND dropped_at IS NULL
) < $9`

var draftVias = []any{string(roster.AcquiredDraft), string(roster.AcquiredAutoDraft)}

type RosterRepository struct {
	db *sqlx.DB
}

func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) ListByLeague(ctx context.Context, leagueID string) ([]roster.Entry, error) {
	return r.list(ctx, qb.Eq("league_id", leagueID))
}

func (r *RosterRepository) ListHeldByLeague(ctx context.Context, leagueID string) ([]roster.Entry, error) {
	return r.list(ctx, qb.Eq("league_id", leagueID), qb.IsNull("dropped_at"))
}

func (r *RosterRepository) ListHeldByMember(ctx context.Context, leagueID, memberID string) ([]roster.Entry, error) {
	return r.list(ctx, qb.Eq("league_id", leagueID), qb.Eq("member_id", memberID), qb.IsNull("dropped_at"))
}

func (r *RosterRepository) list(ctx context.Context, conds ...qb.Condition) ([]roster.Entry, error) {
	query, args, err := qb.Select("*").From("roster_entries").
		Where(conds...).
		OrderBy("acquired_at", "pick_number", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select roster entries query: %w", err)
	}

	var rows []rosterEntryTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select roster entries: %w", err)
	}

	out := make([]roster.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, roster.Entry{
			ID:          row.ID,
			LeagueID:    row.LeagueID,
			MemberID:    row.MemberID,
			CastawayID:  row.CastawayID,
			Round:       row.Round,
			PickNumber:  row.PickNumber,
			AcquiredVia: roster.AcquiredVia(row.AcquiredVia),
			AcquiredAt:  row.AcquiredAt,
			DroppedAt:   timePtr(row.DroppedAt),
		})
	}
	return out, nil
}

func (r *RosterRepository) CountDraftPicks(ctx context.Context, leagueID string) (int, error) {
	query, args, err := qb.Select("COUNT(1)").From("roster_entries").
		Where(qb.Eq("league_id", leagueID), qb.In("acquired_via", draftVias)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count draft picks query: %w", err)
	}

	var count int
	if err := executor(ctx, r.db).GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count draft picks: %w", err)
	}
	return count, nil
}

func (r *RosterRepository) Insert(ctx context.Context, entry roster.Entry, rosterCap int) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, insertUnderCapSQL,
		entry.ID,
		entry.LeagueID,
		entry.MemberID,
		entry.CastawayID,
		entry.Round,
		entry.PickNumber,
		string(entry.AcquiredVia),
		entry.AcquiredAt.UTC(),
		rosterCap,
	)
	if err != nil {
		return writeErr("insert roster entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert roster entry rows affected: %w", err)
	}
	if n == 0 {
		return roster.ErrRosterFull
	}
	return nil
}

func (r *RosterRepository) Drop(ctx context.Context, entryID string, at time.Time) error {
	query, args, err := qb.Update("roster_entries").
		Set("dropped_at", at.UTC()).
		Where(qb.Eq("id", entryID), qb.IsNull("dropped_at")).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build drop roster entry query: %w", err)
	}

	res, err := executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr("drop roster entry", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("drop roster entry %s: %w", entryID, store.ErrConflict)
	}
	return nil
}
