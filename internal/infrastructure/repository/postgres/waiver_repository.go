package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/castaway-league/internal/domain/waiver"
	qb "github.com/riskibarqy/castaway-league/internal/platform/querybuilder"
)

type WaiverRepository struct {
	db *sqlx.DB
}

func NewWaiverRepository(db *sqlx.DB) *WaiverRepository {
	return &WaiverRepository{db: db}
}

func (r *WaiverRepository) UpsertRanking(ctx context.Context, item waiver.Ranking) error {
	query, args, err := qb.InsertModel("waiver_rankings", waiverRankingTableModel{
		LeagueID:    item.LeagueID,
		MemberID:    item.MemberID,
		EpisodeID:   item.EpisodeID,
		CastawayIDs: pq.StringArray(item.CastawayIDs),
		SubmittedAt: item.SubmittedAt.UTC(),
	}, `ON CONFLICT (league_id, member_id, episode_id)
DO UPDATE SET
    castaway_ids = EXCLUDED.castaway_ids,
    submitted_at = EXCLUDED.submitted_at`)
	if err != nil {
		return fmt.Errorf("build upsert waiver ranking query: %w", err)
	}
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return writeErr("upsert waiver ranking", err)
	}
	return nil
}

func (r *WaiverRepository) ListRankings(ctx context.Context, leagueID, episodeID string) ([]waiver.Ranking, error) {
	query, args, err := qb.Select("*").From("waiver_rankings").
		Where(qb.Eq("league_id", leagueID), qb.Eq("episode_id", episodeID)).
		OrderBy("member_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select waiver rankings query: %w", err)
	}

	var rows []waiverRankingTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select waiver rankings: %w", err)
	}

	out := make([]waiver.Ranking, 0, len(rows))
	for _, row := range rows {
		out = append(out, waiver.Ranking{
			LeagueID:    row.LeagueID,
			MemberID:    row.MemberID,
			EpisodeID:   row.EpisodeID,
			CastawayIDs: []string(row.CastawayIDs),
			SubmittedAt: row.SubmittedAt,
		})
	}
	return out, nil
}

func (r *WaiverRepository) HasResults(ctx context.Context, leagueID, episodeID string) (bool, error) {
	query, args, err := qb.Select("1").From("waiver_results").
		Where(qb.Eq("league_id", leagueID), qb.Eq("episode_id", episodeID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build waiver results probe query: %w", err)
	}

	var one int
	if err := executor(ctx, r.db).GetContext(ctx, &one, query, args...); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("probe waiver results: %w", err)
	}
	return true, nil
}

func (r *WaiverRepository) InsertResult(ctx context.Context, item waiver.Result) error {
	query, args, err := qb.InsertModel("waiver_results", waiverResultTableModel{
		ID:                 item.ID,
		LeagueID:           item.LeagueID,
		MemberID:           item.MemberID,
		EpisodeID:          item.EpisodeID,
		DroppedCastawayID:  item.DroppedCastawayID,
		AcquiredCastawayID: item.AcquiredCastawayID,
		Position:           item.Position,
		ProcessedAt:        item.ProcessedAt.UTC(),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert waiver result query: %w", err)
	}
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return writeErr("insert waiver result", err)
	}
	return nil
}

func (r *WaiverRepository) ListResults(ctx context.Context, leagueID, episodeID string) ([]waiver.Result, error) {
	query, args, err := qb.Select("*").From("waiver_results").
		Where(qb.Eq("league_id", leagueID), qb.Eq("episode_id", episodeID)).
		OrderBy("position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select waiver results query: %w", err)
	}

	var rows []waiverResultTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select waiver results: %w", err)
	}

	out := make([]waiver.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, waiver.Result{
			ID:                 row.ID,
			LeagueID:           row.LeagueID,
			MemberID:           row.MemberID,
			EpisodeID:          row.EpisodeID,
			DroppedCastawayID:  row.DroppedCastawayID,
			AcquiredCastawayID: row.AcquiredCastawayID,
			Position:           row.Position,
			ProcessedAt:        row.ProcessedAt,
		})
	}
	return out, nil
}
