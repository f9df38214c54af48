package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	qb "github.com/riskibarqy/castaway-league/internal/platform/querybuilder"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.get(ctx, qb.Select("*").From("leagues").Where(qb.Eq("id", leagueID)))
}

// GetForUpdate row-locks the league; callers hold it until their tx ends.
func (r *LeagueRepository) GetForUpdate(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.get(ctx, qb.Select("*").From("leagues").Where(qb.Eq("id", leagueID)).ForUpdate())
}

func (r *LeagueRepository) get(ctx context.Context, builder *qb.SelectBuilder) (league.League, bool, error) {
	query, args, err := builder.ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get league query: %w", err)
	}

	var row leagueTableModel
	if err := executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league: %w", err)
	}
	return leagueFromRow(row), true, nil
}

func (r *LeagueRepository) ListBySeason(ctx context.Context, seasonID string) ([]league.League, error) {
	return r.list(ctx, qb.Eq("season_id", seasonID))
}

func (r *LeagueRepository) ListByDraftStatus(ctx context.Context, status league.DraftStatus) ([]league.League, error) {
	return r.list(ctx, qb.Eq("draft_status", string(status)))
}

func (r *LeagueRepository) list(ctx context.Context, cond qb.Condition) ([]league.League, error) {
	query, args, err := qb.Select("*").From("leagues").
		Where(cond).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select leagues query: %w", err)
	}

	var rows []leagueTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}
	return out, nil
}

func (r *LeagueRepository) UpdateDraft(ctx context.Context, item league.League) error {
	query, args, err := qb.Update("leagues").
		Set("draft_status", string(item.DraftStatus)).
		Set("draft_order", pq.StringArray(item.DraftOrder)).
		Set("draft_started_at", nullTime(item.DraftStartedAt)).
		Set("draft_completed_at", nullTime(item.DraftCompletedAt)).
		Set("updated_at", item.UpdatedAt.UTC()).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update league draft query: %w", err)
	}

	res, err := executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr("update league draft", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update league draft: league %s not found", item.ID)
	}
	return nil
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]league.Member, error) {
	query, args, err := qb.Select("*").From("league_members").
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("draft_position", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select league members query: %w", err)
	}

	var rows []memberTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select league members: %w", err)
	}

	out := make([]league.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, league.Member{
			ID:            row.ID,
			LeagueID:      row.LeagueID,
			UserID:        row.UserID,
			DisplayName:   row.DisplayName,
			DraftPosition: row.DraftPosition,
			Rank:          row.Rank,
			TotalPoints:   row.TotalPoints,
			JoinedAt:      row.JoinedAt,
		})
	}
	return out, nil
}

func (r *LeagueRepository) UpdateDraftPositions(ctx context.Context, leagueID string, positions map[string]int) error {
	memberIDs := make([]string, 0, len(positions))
	for memberID := range positions {
		memberIDs = append(memberIDs, memberID)
	}
	sort.Strings(memberIDs)

	exec := executor(ctx, r.db)
	for _, memberID := range memberIDs {
		query, args, err := qb.Update("league_members").
			Set("draft_position", positions[memberID]).
			Where(qb.Eq("league_id", leagueID), qb.Eq("id", memberID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update draft position query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return writeErr("update draft position member="+memberID, err)
		}
	}
	return nil
}

func (r *LeagueRepository) UpdateStandings(ctx context.Context, leagueID string, members []league.Member) error {
	exec := executor(ctx, r.db)
	for _, m := range members {
		query, args, err := qb.Update("league_members").
			Set("rank", m.Rank).
			Set("total_points", m.TotalPoints).
			Where(qb.Eq("league_id", leagueID), qb.Eq("id", m.ID)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build update standings query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return writeErr("update standings member="+m.ID, err)
		}
	}
	return nil
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		ID:               row.ID,
		SeasonID:         row.SeasonID,
		Name:             row.Name,
		RosterCap:        row.RosterCap,
		DraftStatus:      league.DraftStatus(row.DraftStatus),
		DraftOrder:       []string(row.DraftOrder),
		DraftStartedAt:   timePtr(row.DraftStartedAt),
		DraftCompletedAt: timePtr(row.DraftCompletedAt),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}
