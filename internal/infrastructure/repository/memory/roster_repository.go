package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
)

type RosterRepository struct {
	store *Store
}

func NewRosterRepository(store *Store) *RosterRepository {
	return &RosterRepository{store: store}
}

func (r *RosterRepository) ListByLeague(ctx context.Context, leagueID string) ([]roster.Entry, error) {
	return r.list(ctx, func(e roster.Entry) bool { return e.LeagueID == leagueID })
}

func (r *RosterRepository) ListHeldByLeague(ctx context.Context, leagueID string) ([]roster.Entry, error) {
	return r.list(ctx, func(e roster.Entry) bool { return e.LeagueID == leagueID && e.IsHeld() })
}

func (r *RosterRepository) ListHeldByMember(ctx context.Context, leagueID, memberID string) ([]roster.Entry, error) {
	return r.list(ctx, func(e roster.Entry) bool {
		return e.LeagueID == leagueID && e.MemberID == memberID && e.IsHeld()
	})
}

// list returns entries in insertion order.
func (r *RosterRepository) list(ctx context.Context, keep func(roster.Entry) bool) ([]roster.Entry, error) {
	var out []roster.Entry
	err := r.store.do(ctx, func(t *tables) error {
		out = make([]roster.Entry, 0)
		for _, entryID := range t.entryOrder {
			if e := t.entries[entryID]; keep(e) {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *RosterRepository) CountDraftPicks(ctx context.Context, leagueID string) (int, error) {
	count := 0
	err := r.store.do(ctx, func(t *tables) error {
		for _, e := range t.entries {
			if e.LeagueID == leagueID && e.IsDraftPick() {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *RosterRepository) Insert(ctx context.Context, entry roster.Entry, rosterCap int) error {
	return r.store.do(ctx, func(t *tables) error {
		if _, exists := t.entries[entry.ID]; exists {
			return fmt.Errorf("%w: roster entry %s exists", store.ErrConflict, entry.ID)
		}
		held := 0
		for _, e := range t.entries {
			if e.LeagueID != entry.LeagueID || !e.IsHeld() {
				continue
			}
			if e.CastawayID == entry.CastawayID {
				return fmt.Errorf("%w: castaway %s already held in league %s", store.ErrConflict, entry.CastawayID, entry.LeagueID)
			}
			if e.MemberID == entry.MemberID {
				held++
			}
		}
		if held >= rosterCap {
			return roster.ErrRosterFull
		}

		entry.DroppedAt = nil
		t.entries[entry.ID] = entry
		t.entryOrder = append(t.entryOrder, entry.ID)
		return nil
	})
}

func (r *RosterRepository) Drop(ctx context.Context, entryID string, at time.Time) error {
	return r.store.do(ctx, func(t *tables) error {
		e, ok := t.entries[entryID]
		if !ok {
			return fmt.Errorf("roster entry %s not found", entryID)
		}
		if !e.IsHeld() {
			return fmt.Errorf("%w: roster entry %s already dropped", store.ErrConflict, entryID)
		}
		e.DroppedAt = &at
		t.entries[entryID] = e
		return nil
	})
}
