package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/castaway-league/internal/domain/store"
	"github.com/riskibarqy/castaway-league/internal/domain/waiver"
)

type WaiverRepository struct {
	store *Store
}

func NewWaiverRepository(store *Store) *WaiverRepository {
	return &WaiverRepository{store: store}
}

func (r *WaiverRepository) UpsertRanking(ctx context.Context, item waiver.Ranking) error {
	return r.store.do(ctx, func(t *tables) error {
		item.CastawayIDs = append([]string(nil), item.CastawayIDs...)
		t.rankings[compositeKey(item.LeagueID, item.EpisodeID, item.MemberID)] = item
		return nil
	})
}

func (r *WaiverRepository) ListRankings(ctx context.Context, leagueID, episodeID string) ([]waiver.Ranking, error) {
	var out []waiver.Ranking
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]waiver.Ranking, 0)
		for _, item := range t.rankings {
			if item.LeagueID == leagueID && item.EpisodeID == episodeID {
				item.CastawayIDs = append([]string(nil), item.CastawayIDs...)
				out = append(out, item)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, err
}

func (r *WaiverRepository) HasResults(ctx context.Context, leagueID, episodeID string) (bool, error) {
	found := false
	err := r.store.do(ctx, func(t *tables) error {
		for _, item := range t.results {
			if item.LeagueID == leagueID && item.EpisodeID == episodeID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *WaiverRepository) InsertResult(ctx context.Context, item waiver.Result) error {
	return r.store.do(ctx, func(t *tables) error {
		for _, existing := range t.results {
			if existing.LeagueID == item.LeagueID && existing.EpisodeID == item.EpisodeID && existing.MemberID == item.MemberID {
				return fmt.Errorf("%w: waiver result for member %s episode %s exists", store.ErrConflict, item.MemberID, item.EpisodeID)
			}
		}
		t.results = append(t.results, item)
		return nil
	})
}

func (r *WaiverRepository) ListResults(ctx context.Context, leagueID, episodeID string) ([]waiver.Result, error) {
	var out []waiver.Result
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]waiver.Result, 0)
		for _, item := range t.results {
			if item.LeagueID == leagueID && item.EpisodeID == episodeID {
				out = append(out, item)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, err
}
