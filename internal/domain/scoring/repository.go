package scoring

import (
	"context"
	"time"
)

type Repository interface {
	GetSession(ctx context.Context, episodeID string) (Session, bool, error)
	// CreateSession fails with store.ErrConflict when the episode already has one.
	CreateSession(ctx context.Context, session Session) error
	// FinalizeSession moves a draft session to finalized. It fails with
	// store.ErrConflict when the session is no longer a draft.
	FinalizeSession(ctx context.Context, episodeID string, at time.Time) error

	// ListRules returns season rules together with global rules, ordered by code.
	ListRules(ctx context.Context, seasonID string) ([]Rule, error)
	UpsertRules(ctx context.Context, rules []Rule) error

	ListScores(ctx context.Context, episodeID string) ([]Score, error)
	UpsertScore(ctx context.Context, score Score) error
	DeleteScore(ctx context.Context, episodeID, castawayID, ruleID string) error
}
