package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/pick"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
)

// StandingsService derives member totals and ranks from scored weekly picks.
type StandingsService struct {
	tx         store.Transactor
	leagueRepo league.Repository
	pickRepo   pick.Repository
}

func NewStandingsService(tx store.Transactor, leagueRepo league.Repository, pickRepo pick.Repository) *StandingsService {
	return &StandingsService{
		tx:         tx,
		leagueRepo: leagueRepo,
		pickRepo:   pickRepo,
	}
}

// Recompute rebuilds the league's standings from every scored pick.
func (s *StandingsService) Recompute(ctx context.Context, leagueID string) (_ []league.Member, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.Recompute", leagueAttr(leagueID))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return nil, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	var out []league.Member
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, exists, err := s.leagueRepo.GetForUpdate(ctx, leagueID); err != nil {
			return fmt.Errorf("get league: %w", err)
		} else if !exists {
			return fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
		}

		ranked, err := s.recompute(ctx, leagueID)
		if err != nil {
			return err
		}
		out = ranked
		return nil
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return out, nil
}

// List returns members ordered by rank. Unranked members trail.
func (s *StandingsService) List(ctx context.Context, leagueID string) ([]league.Member, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.List")
	defer span.End()

	members, err := s.leagueRepo.ListMembers(ctx, strings.TrimSpace(leagueID))
	if err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}
	sort.SliceStable(members, func(i, j int) bool {
		ri, rj := members[i].Rank, members[j].Rank
		if ri == 0 || rj == 0 {
			return ri != 0 && rj == 0
		}
		return ri < rj
	})
	return members, nil
}

// recompute must run inside a unit of work.
func (s *StandingsService) recompute(ctx context.Context, leagueID string) ([]league.Member, error) {
	members, err := s.leagueRepo.ListMembers(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}
	picks, err := s.pickRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league picks: %w", err)
	}

	ranked := league.RankMembers(members, pick.SumByMember(picks))
	if err := s.leagueRepo.UpdateStandings(ctx, leagueID, ranked); err != nil {
		return nil, fmt.Errorf("update standings: %w", err)
	}
	return ranked, nil
}
