package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/season"
)

type SeasonRepository struct {
	store *Store
}

func NewSeasonRepository(store *Store) *SeasonRepository {
	return &SeasonRepository{store: store}
}

func (r *SeasonRepository) GetSeason(ctx context.Context, seasonID string) (season.Season, bool, error) {
	var (
		out    season.Season
		exists bool
	)
	err := r.store.do(ctx, func(t *tables) error {
		out, exists = t.seasons[seasonID]
		return nil
	})
	return out, exists, err
}

func (r *SeasonRepository) GetEpisode(ctx context.Context, episodeID string) (season.Episode, bool, error) {
	var (
		out    season.Episode
		exists bool
	)
	err := r.store.do(ctx, func(t *tables) error {
		out, exists = t.episodes[episodeID]
		return nil
	})
	return out, exists, err
}

func (r *SeasonRepository) ListWaiverReadyEpisodes(ctx context.Context, now time.Time) ([]season.Episode, error) {
	var out []season.Episode
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]season.Episode, 0)
		for _, e := range t.episodes {
			if e.ReadyForWaivers(now) {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeasonID != out[j].SeasonID {
			return out[i].SeasonID < out[j].SeasonID
		}
		return out[i].Number < out[j].Number
	})
	return out, err
}

func (r *SeasonRepository) MarkEpisodeScored(ctx context.Context, episodeID string) error {
	return r.store.do(ctx, func(t *tables) error {
		e, ok := t.episodes[episodeID]
		if !ok {
			return fmt.Errorf("episode %s not found", episodeID)
		}
		e.IsScored = true
		t.episodes[episodeID] = e
		return nil
	})
}

func (r *SeasonRepository) GetCastaway(ctx context.Context, castawayID string) (season.Castaway, bool, error) {
	var (
		out    season.Castaway
		exists bool
	)
	err := r.store.do(ctx, func(t *tables) error {
		out, exists = t.castaways[castawayID]
		return nil
	})
	return out, exists, err
}

func (r *SeasonRepository) ListCastaways(ctx context.Context, seasonID string) ([]season.Castaway, error) {
	var out []season.Castaway
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]season.Castaway, 0)
		for _, c := range t.castaways {
			if c.SeasonID == seasonID {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *SeasonRepository) EliminateCastaways(ctx context.Context, castawayIDs []string, episodeID string) ([]string, error) {
	changed := make([]string, 0, len(castawayIDs))
	err := r.store.do(ctx, func(t *tables) error {
		for _, castawayID := range castawayIDs {
			c, ok := t.castaways[castawayID]
			if !ok {
				return fmt.Errorf("castaway %s not found", castawayID)
			}
			next, err := c.Eliminate(episodeID)
			if err != nil {
				continue
			}
			t.castaways[castawayID] = next
			changed = append(changed, castawayID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(changed)
	return changed, nil
}
