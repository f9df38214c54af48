package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads seed into an empty database. It does nothing once any
// season exists.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, seed memory.Seed) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM seasons`); err != nil {
		return fmt.Errorf("count seasons for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, s := range seed.Seasons {
		if err := execNamed(ctx, tx, `
INSERT INTO seasons (id, name, draft_deadline)
VALUES (:id, :name, :draft_deadline)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":             s.ID,
			"name":           s.Name,
			"draft_deadline": s.DraftDeadline.UTC(),
		}); err != nil {
			return fmt.Errorf("seed season %s: %w", s.ID, err)
		}
	}

	for _, e := range seed.Episodes {
		if err := execNamed(ctx, tx, `
INSERT INTO episodes (id, season_id, number, air_at, pick_lock_at, waiver_open_at, waiver_close_at, is_scored)
VALUES (:id, :season_id, :number, :air_at, :pick_lock_at, :waiver_open_at, :waiver_close_at, :is_scored)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":              e.ID,
			"season_id":       e.SeasonID,
			"number":          e.Number,
			"air_at":          e.AirAt.UTC(),
			"pick_lock_at":    e.PickLockAt.UTC(),
			"waiver_open_at":  e.WaiverOpenAt.UTC(),
			"waiver_close_at": e.WaiverCloseAt.UTC(),
			"is_scored":       e.IsScored,
		}); err != nil {
			return fmt.Errorf("seed episode %s: %w", e.ID, err)
		}
	}

	for _, c := range seed.Castaways {
		status := c.Status
		if status == "" {
			status = season.CastawayActive
		}
		if err := execNamed(ctx, tx, `
INSERT INTO castaways (id, season_id, name, status)
VALUES (:id, :season_id, :name, :status)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":        c.ID,
			"season_id": c.SeasonID,
			"name":      c.Name,
			"status":    string(status),
		}); err != nil {
			return fmt.Errorf("seed castaway %s: %w", c.ID, err)
		}
	}

	for _, l := range seed.Leagues {
		rosterCap := l.RosterCap
		if rosterCap == 0 {
			rosterCap = league.DefaultRosterCap
		}
		status := l.DraftStatus
		if status == "" {
			status = league.DraftPending
		}
		if err := execNamed(ctx, tx, `
INSERT INTO leagues (id, season_id, name, roster_cap, draft_status, draft_order)
VALUES (:id, :season_id, :name, :roster_cap, :draft_status, :draft_order)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":           l.ID,
			"season_id":    l.SeasonID,
			"name":         l.Name,
			"roster_cap":   rosterCap,
			"draft_status": string(status),
			"draft_order":  pq.StringArray(l.DraftOrder),
		}); err != nil {
			return fmt.Errorf("seed league %s: %w", l.ID, err)
		}
	}

	for _, m := range seed.Members {
		if err := execNamed(ctx, tx, `
INSERT INTO league_members (id, league_id, user_id, display_name, draft_position)
VALUES (:id, :league_id, :user_id, :display_name, :draft_position)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":             m.ID,
			"league_id":      m.LeagueID,
			"user_id":        m.UserID,
			"display_name":   m.DisplayName,
			"draft_position": m.DraftPosition,
		}); err != nil {
			return fmt.Errorf("seed member %s: %w", m.ID, err)
		}
	}

	if err := NewScoringRepository(db).UpsertRules(context.WithValue(ctx, txKey{}, tx), withEliminationFlags(seed.Rules)); err != nil {
		return fmt.Errorf("seed scoring rules: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func execNamed(ctx context.Context, tx *sqlx.Tx, query string, arg map[string]any) error {
	sqlQuery, args, err := sqlx.Named(query, arg)
	if err != nil {
		return fmt.Errorf("bind query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(sqlQuery), args...); err != nil {
		return err
	}
	return nil
}

func withEliminationFlags(rules []scoring.Rule) []scoring.Rule {
	out := make([]scoring.Rule, len(rules))
	for i, rule := range rules {
		rule.Elimination = rule.Elimination || scoring.IsEliminationCode(rule.Code)
		out[i] = rule
	}
	return out
}
