package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	qb "github.com/riskibarqy/castaway-league/internal/platform/querybuilder"
)

type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func (r *SeasonRepository) GetSeason(ctx context.Context, seasonID string) (season.Season, bool, error) {
	query, args, err := qb.Select("*").From("seasons").Where(qb.Eq("id", seasonID)).ToSQL()
	if err != nil {
		return season.Season{}, false, fmt.Errorf("build get season query: %w", err)
	}

	var row seasonTableModel
	if err := executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, false, nil
		}
		return season.Season{}, false, fmt.Errorf("get season: %w", err)
	}
	return season.Season{ID: row.ID, Name: row.Name, DraftDeadline: row.DraftDeadline}, true, nil
}

func (r *SeasonRepository) GetEpisode(ctx context.Context, episodeID string) (season.Episode, bool, error) {
	query, args, err := qb.Select("*").From("episodes").Where(qb.Eq("id", episodeID)).ToSQL()
	if err != nil {
		return season.Episode{}, false, fmt.Errorf("build get episode query: %w", err)
	}

	var row episodeTableModel
	if err := executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Episode{}, false, nil
		}
		return season.Episode{}, false, fmt.Errorf("get episode: %w", err)
	}
	return episodeFromRow(row), true, nil
}

func (r *SeasonRepository) ListWaiverReadyEpisodes(ctx context.Context, now time.Time) ([]season.Episode, error) {
	query, args, err := qb.Select("*").From("episodes").
		Where(
			qb.Eq("is_scored", true),
			qb.Expr("waiver_close_at <= ?", now.UTC()),
		).
		OrderBy("season_id", "number").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select waiver-ready episodes query: %w", err)
	}

	var rows []episodeTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select waiver-ready episodes: %w", err)
	}

	out := make([]season.Episode, 0, len(rows))
	for _, row := range rows {
		out = append(out, episodeFromRow(row))
	}
	return out, nil
}

func (r *SeasonRepository) MarkEpisodeScored(ctx context.Context, episodeID string) error {
	query, args, err := qb.Update("episodes").
		Set("is_scored", true).
		Where(qb.Eq("id", episodeID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark episode scored query: %w", err)
	}

	res, err := executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr("mark episode scored", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark episode scored: episode %s not found", episodeID)
	}
	return nil
}

func (r *SeasonRepository) GetCastaway(ctx context.Context, castawayID string) (season.Castaway, bool, error) {
	query, args, err := qb.Select("*").From("castaways").Where(qb.Eq("id", castawayID)).ToSQL()
	if err != nil {
		return season.Castaway{}, false, fmt.Errorf("build get castaway query: %w", err)
	}

	var row castawayTableModel
	if err := executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Castaway{}, false, nil
		}
		return season.Castaway{}, false, fmt.Errorf("get castaway: %w", err)
	}
	return castawayFromRow(row), true, nil
}

func (r *SeasonRepository) ListCastaways(ctx context.Context, seasonID string) ([]season.Castaway, error) {
	query, args, err := qb.Select("*").From("castaways").
		Where(qb.Eq("season_id", seasonID)).
		OrderBy("name", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select castaways query: %w", err)
	}

	var rows []castawayTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select castaways: %w", err)
	}

	out := make([]season.Castaway, 0, len(rows))
	for _, row := range rows {
		out = append(out, castawayFromRow(row))
	}
	return out, nil
}

// EliminateCastaways only touches active rows, so re-running is a no-op.
func (r *SeasonRepository) EliminateCastaways(ctx context.Context, castawayIDs []string, episodeID string) ([]string, error) {
	if len(castawayIDs) == 0 {
		return []string{}, nil
	}

	query, args, err := qb.Update("castaways").
		Set("status", string(season.CastawayEliminated)).
		Set("eliminated_episode_id", episodeID).
		Where(
			qb.In("id", stringSliceToAny(castawayIDs)),
			qb.Eq("status", string(season.CastawayActive)),
		).
		Returning("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build eliminate castaways query: %w", err)
	}

	changed := make([]string, 0, len(castawayIDs))
	if err := executor(ctx, r.db).SelectContext(ctx, &changed, query, args...); err != nil {
		return nil, writeErr("eliminate castaways", err)
	}
	sort.Strings(changed)
	return changed, nil
}

func episodeFromRow(row episodeTableModel) season.Episode {
	return season.Episode{
		ID:            row.ID,
		SeasonID:      row.SeasonID,
		Number:        row.Number,
		AirAt:         row.AirAt,
		PickLockAt:    row.PickLockAt,
		WaiverOpenAt:  row.WaiverOpenAt,
		WaiverCloseAt: row.WaiverCloseAt,
		IsScored:      row.IsScored,
	}
}

func castawayFromRow(row castawayTableModel) season.Castaway {
	return season.Castaway{
		ID:                  row.ID,
		SeasonID:            row.SeasonID,
		Name:                row.Name,
		Status:              season.CastawayStatus(row.Status),
		EliminatedEpisodeID: row.EliminatedEpisodeID.String,
	}
}
