package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
)

type ScoringRepository struct {
	store *Store
}

func NewScoringRepository(store *Store) *ScoringRepository {
	return &ScoringRepository{store: store}
}

func (r *ScoringRepository) GetSession(ctx context.Context, episodeID string) (scoring.Session, bool, error) {
	var (
		out    scoring.Session
		exists bool
	)
	err := r.store.do(ctx, func(t *tables) error {
		out, exists = t.sessions[episodeID]
		return nil
	})
	return out, exists, err
}

func (r *ScoringRepository) CreateSession(ctx context.Context, session scoring.Session) error {
	return r.store.do(ctx, func(t *tables) error {
		if _, exists := t.sessions[session.EpisodeID]; exists {
			return fmt.Errorf("%w: scoring session for episode %s exists", store.ErrConflict, session.EpisodeID)
		}
		t.sessions[session.EpisodeID] = session
		return nil
	})
}

func (r *ScoringRepository) FinalizeSession(ctx context.Context, episodeID string, at time.Time) error {
	return r.store.do(ctx, func(t *tables) error {
		session, ok := t.sessions[episodeID]
		if !ok {
			return fmt.Errorf("scoring session for episode %s not found", episodeID)
		}
		next, err := session.Status.Next(scoring.SessionOpFinalize)
		if err != nil {
			return fmt.Errorf("%w: %v", store.ErrConflict, err)
		}
		session.Status = next
		session.FinalizedAt = &at
		t.sessions[episodeID] = session
		return nil
	})
}

func (r *ScoringRepository) ListRules(ctx context.Context, seasonID string) ([]scoring.Rule, error) {
	var out []scoring.Rule
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]scoring.Rule, 0)
		for _, rule := range t.rules {
			if rule.IsGlobal() || rule.SeasonID == seasonID {
				out = append(out, rule)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *ScoringRepository) UpsertRules(ctx context.Context, rules []scoring.Rule) error {
	return r.store.do(ctx, func(t *tables) error {
		for _, rule := range rules {
			t.rules[rule.ID] = rule
		}
		return nil
	})
}

func scoreKey(episodeID, castawayID, ruleID string) string {
	return compositeKey(episodeID, castawayID, ruleID)
}

func (r *ScoringRepository) ListScores(ctx context.Context, episodeID string) ([]scoring.Score, error) {
	var out []scoring.Score
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]scoring.Score, 0)
		for _, s := range t.scores {
			if s.EpisodeID == episodeID {
				out = append(out, s)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return scoreKey(out[i].EpisodeID, out[i].CastawayID, out[i].RuleID) < scoreKey(out[j].EpisodeID, out[j].CastawayID, out[j].RuleID)
	})
	return out, err
}

func (r *ScoringRepository) UpsertScore(ctx context.Context, score scoring.Score) error {
	return r.store.do(ctx, func(t *tables) error {
		key := scoreKey(score.EpisodeID, score.CastawayID, score.RuleID)
		if current, ok := t.scores[key]; ok {
			score.ID = current.ID
		}
		t.scores[key] = score
		return nil
	})
}

func (r *ScoringRepository) DeleteScore(ctx context.Context, episodeID, castawayID, ruleID string) error {
	return r.store.do(ctx, func(t *tables) error {
		delete(t.scores, scoreKey(episodeID, castawayID, ruleID))
		return nil
	})
}
