package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
	qb "github.com/riskibarqy/castaway-league/internal/platform/querybuilder"
)

type ScoringRepository struct {
	db *sqlx.DB
}

func NewScoringRepository(db *sqlx.DB) *ScoringRepository {
	return &ScoringRepository{db: db}
}

func (r *ScoringRepository) GetSession(ctx context.Context, episodeID string) (scoring.Session, bool, error) {
	query, args, err := qb.Select("*").From("scoring_sessions").
		Where(qb.Eq("episode_id", episodeID)).
		ToSQL()
	if err != nil {
		return scoring.Session{}, false, fmt.Errorf("build get scoring session query: %w", err)
	}

	var row scoringSessionTableModel
	if err := executor(ctx, r.db).GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return scoring.Session{}, false, nil
		}
		return scoring.Session{}, false, fmt.Errorf("get scoring session: %w", err)
	}
	return scoring.Session{
		ID:          row.ID,
		EpisodeID:   row.EpisodeID,
		Status:      scoring.SessionStatus(row.Status),
		CreatedAt:   row.CreatedAt,
		FinalizedAt: timePtr(row.FinalizedAt),
	}, true, nil
}

func (r *ScoringRepository) CreateSession(ctx context.Context, session scoring.Session) error {
	query, args, err := qb.InsertModel("scoring_sessions", scoringSessionTableModel{
		ID:          session.ID,
		EpisodeID:   session.EpisodeID,
		Status:      string(session.Status),
		CreatedAt:   session.CreatedAt.UTC(),
		FinalizedAt: nullTime(session.FinalizedAt),
	}, "")
	if err != nil {
		return fmt.Errorf("build insert scoring session query: %w", err)
	}
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return writeErr("insert scoring session", err)
	}
	return nil
}

// FinalizeSession is a compare-and-set on status.
func (r *ScoringRepository) FinalizeSession(ctx context.Context, episodeID string, at time.Time) error {
	query, args, err := qb.Update("scoring_sessions").
		Set("status", string(scoring.SessionFinalized)).
		Set("finalized_at", at.UTC()).
		Where(qb.Eq("episode_id", episodeID), qb.Eq("status", string(scoring.SessionDraft))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build finalize scoring session query: %w", err)
	}

	res, err := executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr("finalize scoring session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize scoring session rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finalize scoring session episode=%s: %w", episodeID, store.ErrConflict)
	}
	return nil
}

func (r *ScoringRepository) ListRules(ctx context.Context, seasonID string) ([]scoring.Rule, error) {
	query, args, err := qb.Select("*").From("scoring_rules").
		Where(qb.Expr("(season_id = ? OR season_id IS NULL)", seasonID)).
		OrderBy("code", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select scoring rules query: %w", err)
	}

	var rows []scoringRuleTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select scoring rules: %w", err)
	}

	out := make([]scoring.Rule, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoring.Rule{
			ID:          row.ID,
			SeasonID:    row.SeasonID.String,
			Code:        row.Code,
			Description: row.Description,
			Points:      row.Points,
			Category:    row.Category,
			Elimination: row.Elimination,
		})
	}
	return out, nil
}

func (r *ScoringRepository) UpsertRules(ctx context.Context, rules []scoring.Rule) error {
	exec := executor(ctx, r.db)
	for _, rule := range rules {
		query, args, err := qb.InsertModel("scoring_rules", scoringRuleTableModel{
			ID:          rule.ID,
			SeasonID:    nullString(rule.SeasonID),
			Code:        rule.Code,
			Description: rule.Description,
			Points:      rule.Points,
			Category:    rule.Category,
			Elimination: rule.Elimination || scoring.IsEliminationCode(rule.Code),
		}, `ON CONFLICT (id)
DO UPDATE SET
    season_id = EXCLUDED.season_id,
    code = EXCLUDED.code,
    description = EXCLUDED.description,
    points = EXCLUDED.points,
    category = EXCLUDED.category,
    elimination = EXCLUDED.elimination`)
		if err != nil {
			return fmt.Errorf("build upsert scoring rule query: %w", err)
		}
		if _, err := exec.ExecContext(ctx, query, args...); err != nil {
			return writeErr("upsert scoring rule "+rule.ID, err)
		}
	}
	return nil
}

func (r *ScoringRepository) ListScores(ctx context.Context, episodeID string) ([]scoring.Score, error) {
	query, args, err := qb.Select("*").From("episode_scores").
		Where(qb.Eq("episode_id", episodeID)).
		OrderBy("castaway_id", "rule_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select episode scores query: %w", err)
	}

	var rows []episodeScoreTableModel
	if err := executor(ctx, r.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select episode scores: %w", err)
	}

	out := make([]scoring.Score, 0, len(rows))
	for _, row := range rows {
		out = append(out, scoring.Score{
			ID:         row.ID,
			EpisodeID:  row.EpisodeID,
			CastawayID: row.CastawayID,
			RuleID:     row.RuleID,
			Quantity:   row.Quantity,
			Points:     row.Points,
			UpdatedAt:  row.UpdatedAt,
		})
	}
	return out, nil
}

func (r *ScoringRepository) UpsertScore(ctx context.Context, score scoring.Score) error {
	query, args, err := qb.InsertModel("episode_scores", episodeScoreTableModel{
		ID:         score.ID,
		EpisodeID:  score.EpisodeID,
		CastawayID: score.CastawayID,
		RuleID:     score.RuleID,
		Quantity:   score.Quantity,
		Points:     score.Points,
		UpdatedAt:  score.UpdatedAt.UTC(),
	}, `ON CONFLICT (episode_id, castaway_id, rule_id)
DO UPDATE SET
    quantity = EXCLUDED.quantity,
    points = EXCLUDED.points,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build upsert episode score query: %w", err)
	}
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return writeErr("upsert episode score", err)
	}
	return nil
}

func (r *ScoringRepository) DeleteScore(ctx context.Context, episodeID, castawayID, ruleID string) error {
	query, args, err := qb.DeleteFrom("episode_scores").
		Where(
			qb.Eq("episode_id", episodeID),
			qb.Eq("castaway_id", castawayID),
			qb.Eq("rule_id", ruleID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete episode score query: %w", err)
	}
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete episode score: %w", err)
	}
	return nil
}
