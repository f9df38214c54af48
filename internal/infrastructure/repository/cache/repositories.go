package cache

import (
	"context"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	basecache "github.com/riskibarqy/castaway-league/internal/platform/cache"
)

// SeasonRepository caches season headers. Episodes and castaways change as
// scoring is finalized, so those reads always go to the next repository.
type SeasonRepository struct {
	season.Repository
	seasons *basecache.Store[cachedSeason]
}

type cachedSeason struct {
	value  season.Season
	exists bool
}

func NewSeasonRepository(next season.Repository, ttl time.Duration) *SeasonRepository {
	return &SeasonRepository{Repository: next, seasons: basecache.NewStore[cachedSeason](ttl)}
}

func (r *SeasonRepository) GetSeason(ctx context.Context, seasonID string) (season.Season, bool, error) {
	v, err := r.seasons.GetOrLoad(ctx, "season:"+seasonID, func(ctx context.Context) (cachedSeason, error) {
		item, exists, err := r.Repository.GetSeason(ctx, seasonID)
		return cachedSeason{value: item, exists: exists}, err
	})
	if err != nil {
		return season.Season{}, false, err
	}
	return v.value, v.exists, nil
}

// ScoringRepository caches the rule list per season. UpsertRules drops every
// cached list since a global rule belongs to all seasons.
type ScoringRepository struct {
	scoring.Repository
	rules *basecache.Store[[]scoring.Rule]
}

func NewScoringRepository(next scoring.Repository, ttl time.Duration) *ScoringRepository {
	return &ScoringRepository{Repository: next, rules: basecache.NewStore[[]scoring.Rule](ttl)}
}

func (r *ScoringRepository) ListRules(ctx context.Context, seasonID string) ([]scoring.Rule, error) {
	items, err := r.rules.GetOrLoad(ctx, "rules:"+seasonID, func(ctx context.Context) ([]scoring.Rule, error) {
		return r.Repository.ListRules(ctx, seasonID)
	})
	if err != nil {
		return nil, err
	}
	return append([]scoring.Rule(nil), items...), nil
}

func (r *ScoringRepository) UpsertRules(ctx context.Context, rules []scoring.Rule) error {
	if err := r.Repository.UpsertRules(ctx, rules); err != nil {
		return err
	}
	r.rules.DeletePrefix(ctx, "rules:")
	return nil
}
