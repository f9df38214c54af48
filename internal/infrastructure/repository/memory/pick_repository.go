package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/castaway-league/internal/domain/pick"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
)

type PickRepository struct {
	store *Store
}

func NewPickRepository(store *Store) *PickRepository {
	return &PickRepository{store: store}
}

func pickKey(leagueID, memberID, episodeID string) string {
	return compositeKey(leagueID, memberID, episodeID)
}

func (r *PickRepository) Get(ctx context.Context, leagueID, memberID, episodeID string) (pick.WeeklyPick, bool, error) {
	var (
		out    pick.WeeklyPick
		exists bool
	)
	err := r.store.do(ctx, func(t *tables) error {
		out, exists = t.picks[pickKey(leagueID, memberID, episodeID)]
		return nil
	})
	return out, exists, err
}

func (r *PickRepository) Upsert(ctx context.Context, item pick.WeeklyPick) error {
	return r.store.do(ctx, func(t *tables) error {
		key := pickKey(item.LeagueID, item.MemberID, item.EpisodeID)
		if current, ok := t.picks[key]; ok {
			if current.IsScored() {
				return fmt.Errorf("%w: weekly pick for member %s episode %s already scored", store.ErrConflict, item.MemberID, item.EpisodeID)
			}
			item.ID = current.ID
		}
		t.picks[key] = item
		return nil
	})
}

func (r *PickRepository) ListByEpisode(ctx context.Context, episodeID string) ([]pick.WeeklyPick, error) {
	return r.list(ctx, func(p pick.WeeklyPick) bool { return p.EpisodeID == episodeID })
}

func (r *PickRepository) ListByLeague(ctx context.Context, leagueID string) ([]pick.WeeklyPick, error) {
	return r.list(ctx, func(p pick.WeeklyPick) bool { return p.LeagueID == leagueID })
}

func (r *PickRepository) list(ctx context.Context, keep func(pick.WeeklyPick) bool) ([]pick.WeeklyPick, error) {
	var out []pick.WeeklyPick
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]pick.WeeklyPick, 0)
		for _, p := range t.picks {
			if keep(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return pickKey(out[i].LeagueID, out[i].EpisodeID, out[i].MemberID) < pickKey(out[j].LeagueID, out[j].EpisodeID, out[j].MemberID)
	})
	return out, err
}

func (r *PickRepository) ApplyEpisodePoints(ctx context.Context, episodeID string, totals map[string]int) (int, error) {
	updated := 0
	err := r.store.do(ctx, func(t *tables) error {
		for key, p := range t.picks {
			if p.EpisodeID != episodeID {
				continue
			}
			points := totals[p.CastawayID]
			p.PointsEarned = &points
			t.picks[key] = p
			updated++
		}
		return nil
	})
	return updated, err
}
