package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/castaway-league/internal/domain/pick"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
	qb "github.com/riskibarqy/castaway-league/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) Get(ctx context.Context, leagueID, memberID, episodeID string) (pick.WeeklyPick, bool, error) {
	query, args, err := qb.Select("*").From("weekly_picks").
		Where(
			qb.Eq("league_id", leagueID),
			qb.Eq("member_id", memberID),
			qb.Eq("episode_id", episodeID),
		).
		ToSQL()
	if err != nil {
		return pick.WeeklyPick{}, false, fmt.Errorf("build get weekly pick query: %w", err)
	}

	var row weeklyPickTableModel
	if err := executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pick.WeeklyPick{}, false, nil
		}
		return pick.WeeklyPick{}, false, fmt.Errorf("get weekly pick: %w", err)
	}
	return pickFromRow(row), true, nil
}

// Upsert keeps the stored id and points when the key already exists. A pick
// that already earned points is frozen and reports store.ErrConflict.
func (r *PickRepository) Upsert(ctx context.Context, item pick.WeeklyPick) error {
	query, args, err := upsertPickQuery(item)
	if err != nil {
		return fmt.Errorf("build upsert weekly pick query: %w", err)
	}
	res, err := executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr("upsert weekly pick", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert weekly pick rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("upsert weekly pick: %w: member %s episode %s already scored", store.ErrConflict, item.MemberID, item.EpisodeID)
	}
	return nil
}

func upsertPickQuery(item pick.WeeklyPick) (string, []any, error) {
	return qb.InsertInto("weekly_picks").
		Columns("id", "league_id", "member_id", "episode_id", "castaway_id", "submitted_at").
		Values(item.ID, item.LeagueID, item.MemberID, item.EpisodeID, item.CastawayID, item.SubmittedAt.UTC()).
		Suffix(`ON CONFLICT (league_id, member_id, episode_id)
DO UPDATE SET
    castaway_id = EXCLUDED.castaway_id,
    submitted_at = EXCLUDED.submitted_at
WHERE weekly_picks.points_earned IS NULL`).
		ToSQL()
}

func (r *PickRepository) ListByEpisode(ctx context.Context, episodeID string) ([]pick.WeeklyPick, error) {
	return r.list(ctx, qb.Eq("episode_id", episodeID))
}

func (r *PickRepository) ListByLeague(ctx context.Context, leagueID string) ([]pick.WeeklyPick, error) {
	return r.list(ctx, qb.Eq("league_id", leagueID))
}

func (r *PickRepository) list(ctx context.Context, cond qb.Condition) ([]pick.WeeklyPick, error) {
	query, args, err := qb.Select("*").From("weekly_picks").
		Where(cond).
		OrderBy("league_id", "episode_id", "member_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select weekly picks query: %w", err)
	}

	var rows []weeklyPickTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select weekly picks: %w", err)
	}

	out := make([]pick.WeeklyPick, 0, len(rows))
	for _, row := range rows {
		out = append(out, pickFromRow(row))
	}
	return out, nil
}

// ApplyEpisodePoints zeroes every pick of the episode, then writes each
// castaway's total. Both statements run on the caller's transaction.
func (r *PickRepository) ApplyEpisodePoints(ctx context.Context, episodeID string, totals map[string]int) (int, error) {
	exec := executor(ctx, r.db)

	query, args, err := qb.Update("weekly_picks").
		Set("points_earned", 0).
		Where(qb.Eq("episode_id", episodeID)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build reset pick points query: %w", err)
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, writeErr("reset pick points", err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset pick points rows affected: %w", err)
	}

	castawayIDs := make([]string, 0, len(totals))
	for castawayID := range totals {
		castawayIDs = append(castawayIDs, castawayID)
	}
	sort.Strings(castawayIDs)
	for _, castawayID := range castawayIDs {
		query, args, err := qb.Update("weekly_picks").
			Set("points_earned", totals[castawayID]).
			Where(qb.Eq("episode_id", episodeID), qb.Eq("castaway_id", castawayID)).
			ToSQL()
		if err != nil {
			return 0, fmt.Errorf("build apply pick points query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return 0, writeErr("apply pick points castaway="+castawayID, err)
		}
	}
	return int(updated), nil
}

func pickFromRow(row weeklyPickTableModel) pick.WeeklyPick {
	return pick.WeeklyPick{
		ID:           row.ID,
		LeagueID:     row.LeagueID,
		MemberID:     row.MemberID,
		EpisodeID:    row.EpisodeID,
		CastawayID:   row.CastawayID,
		PointsEarned: intPtr(row.PointsEarned),
		SubmittedAt:  row.SubmittedAt,
	}
}
