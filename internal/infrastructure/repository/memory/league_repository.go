package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/castaway-league/internal/domain/league"
)

type LeagueRepository struct {
	store *Store
}

func NewLeagueRepository(store *Store) *LeagueRepository {
	return &LeagueRepository{store: store}
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	var (
		out    league.League
		exists bool
	)
	err := r.store.do(ctx, func(t *tables) error {
		item, ok := t.leagues[leagueID]
		if ok {
			out, exists = cloneLeague(item), true
		}
		return nil
	})
	return out, exists, err
}

// GetForUpdate is GetByID: units of work already run one at a time.
func (r *LeagueRepository) GetForUpdate(ctx context.Context, leagueID string) (league.League, bool, error) {
	return r.GetByID(ctx, leagueID)
}

func (r *LeagueRepository) ListBySeason(ctx context.Context, seasonID string) ([]league.League, error) {
	return r.list(ctx, func(item league.League) bool { return item.SeasonID == seasonID })
}

func (r *LeagueRepository) ListByDraftStatus(ctx context.Context, status league.DraftStatus) ([]league.League, error) {
	return r.list(ctx, func(item league.League) bool { return item.DraftStatus == status })
}

func (r *LeagueRepository) list(ctx context.Context, keep func(league.League) bool) ([]league.League, error) {
	var out []league.League
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]league.League, 0, len(t.leagues))
		for _, item := range t.leagues {
			if keep(item) {
				out = append(out, cloneLeague(item))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *LeagueRepository) UpdateDraft(ctx context.Context, item league.League) error {
	return r.store.do(ctx, func(t *tables) error {
		current, ok := t.leagues[item.ID]
		if !ok {
			return fmt.Errorf("league %s not found", item.ID)
		}
		current.DraftStatus = item.DraftStatus
		current.DraftOrder = append([]string(nil), item.DraftOrder...)
		current.DraftStartedAt = item.DraftStartedAt
		current.DraftCompletedAt = item.DraftCompletedAt
		current.UpdatedAt = item.UpdatedAt
		t.leagues[item.ID] = current
		return nil
	})
}

func (r *LeagueRepository) ListMembers(ctx context.Context, leagueID string) ([]league.Member, error) {
	var out []league.Member
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]league.Member, 0)
		for _, m := range t.members {
			if m.LeagueID == leagueID {
				out = append(out, m)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DraftPosition != out[j].DraftPosition {
			return out[i].DraftPosition < out[j].DraftPosition
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *LeagueRepository) UpdateDraftPositions(ctx context.Context, leagueID string, positions map[string]int) error {
	return r.store.do(ctx, func(t *tables) error {
		for memberID := range positions {
			if m, ok := t.members[memberID]; !ok || m.LeagueID != leagueID {
				return fmt.Errorf("member %s not in league %s", memberID, leagueID)
			}
		}
		for memberID, position := range positions {
			m := t.members[memberID]
			m.DraftPosition = position
			t.members[memberID] = m
		}
		return nil
	})
}

func (r *LeagueRepository) UpdateStandings(ctx context.Context, leagueID string, members []league.Member) error {
	return r.store.do(ctx, func(t *tables) error {
		for _, item := range members {
			if m, ok := t.members[item.ID]; !ok || m.LeagueID != leagueID {
				return fmt.Errorf("member %s not in league %s", item.ID, leagueID)
			}
		}
		for _, item := range members {
			m := t.members[item.ID]
			m.Rank = item.Rank
			m.TotalPoints = item.TotalPoints
			t.members[item.ID] = m
		}
		return nil
	})
}

func cloneLeague(item league.League) league.League {
	item.DraftOrder = append([]string(nil), item.DraftOrder...)
	return item
}
