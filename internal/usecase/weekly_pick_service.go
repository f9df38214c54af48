package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/pick"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
	"github.com/riskibarqy/castaway-league/internal/platform/id"
)

type WeeklyPickInput struct {
	LeagueID   string `validate:"required"`
	MemberID   string `validate:"required"`
	EpisodeID  string `validate:"required"`
	CastawayID string `validate:"required"`
}

type WeeklyPickService struct {
	tx         store.Transactor
	leagueRepo league.Repository
	seasonRepo season.Repository
	rosterRepo roster.Repository
	pickRepo   pick.Repository
	ids        id.Generator
	now        func() time.Time
}

func NewWeeklyPickService(
	tx store.Transactor,
	leagueRepo league.Repository,
	seasonRepo season.Repository,
	rosterRepo roster.Repository,
	pickRepo pick.Repository,
	ids id.Generator,
) *WeeklyPickService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &WeeklyPickService{
		tx:         tx,
		leagueRepo: leagueRepo,
		seasonRepo: seasonRepo,
		rosterRepo: rosterRepo,
		pickRepo:   pickRepo,
		ids:        ids,
		now:        time.Now,
	}
}

// SubmitPick upserts the member's castaway for the episode until pick lock.
func (s *WeeklyPickService) SubmitPick(ctx context.Context, input WeeklyPickInput) (pick.WeeklyPick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WeeklyPickService.SubmitPick")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.MemberID = strings.TrimSpace(input.MemberID)
	input.EpisodeID = strings.TrimSpace(input.EpisodeID)
	input.CastawayID = strings.TrimSpace(input.CastawayID)
	if err := validateInput(ctx, input); err != nil {
		return pick.WeeklyPick{}, err
	}

	now := s.now().UTC()
	var out pick.WeeklyPick
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.submitPick(ctx, input, now)
		return err
	})
	if err != nil {
		return pick.WeeklyPick{}, err
	}
	return out, nil
}

func (s *WeeklyPickService) submitPick(ctx context.Context, input WeeklyPickInput, now time.Time) (pick.WeeklyPick, error) {
	item, exists, err := s.leagueRepo.GetByID(ctx, input.LeagueID)
	if err != nil {
		return pick.WeeklyPick{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return pick.WeeklyPick{}, fmt.Errorf("%w: league=%s", ErrNotFound, input.LeagueID)
	}
	if !item.IsActive() {
		return pick.WeeklyPick{}, fmt.Errorf("%w: league=%s draft is %s", ErrPrecondition, item.ID, item.DraftStatus)
	}

	members, err := s.leagueRepo.ListMembers(ctx, item.ID)
	if err != nil {
		return pick.WeeklyPick{}, fmt.Errorf("list league members: %w", err)
	}
	if !containsMember(members, input.MemberID) {
		return pick.WeeklyPick{}, fmt.Errorf("%w: member=%s league=%s", ErrNotLeagueMember, input.MemberID, item.ID)
	}

	episode, exists, err := s.seasonRepo.GetEpisode(ctx, input.EpisodeID)
	if err != nil {
		return pick.WeeklyPick{}, fmt.Errorf("get episode: %w", err)
	}
	if !exists || episode.SeasonID != item.SeasonID {
		return pick.WeeklyPick{}, fmt.Errorf("%w: episode=%s", ErrNotFound, input.EpisodeID)
	}
	if episode.IsScored {
		return pick.WeeklyPick{}, fmt.Errorf("%w: episode=%s", ErrEpisodeScored, episode.ID)
	}
	if !episode.PickWindowOpen(now) {
		return pick.WeeklyPick{}, fmt.Errorf("%w: picks for episode=%s locked at %s", ErrWindowClosed, episode.ID, episode.PickLockAt.Format(time.RFC3339))
	}

	held, err := s.rosterRepo.ListHeldByMember(ctx, item.ID, input.MemberID)
	if err != nil {
		return pick.WeeklyPick{}, fmt.Errorf("list member roster: %w", err)
	}
	onRoster := false
	for _, entry := range held {
		if entry.CastawayID == input.CastawayID {
			onRoster = true
			break
		}
	}
	if !onRoster {
		return pick.WeeklyPick{}, fmt.Errorf("%w: castaway=%s", ErrNotOnRoster, input.CastawayID)
	}

	current, exists, err := s.pickRepo.Get(ctx, item.ID, input.MemberID, episode.ID)
	if err != nil {
		return pick.WeeklyPick{}, fmt.Errorf("get weekly pick: %w", err)
	}
	if exists && current.IsScored() {
		return pick.WeeklyPick{}, fmt.Errorf("%w: episode=%s", ErrEpisodeScored, episode.ID)
	}
	pickID := current.ID
	if !exists {
		pickID, err = s.ids.NewID()
		if err != nil {
			return pick.WeeklyPick{}, fmt.Errorf("generate pick id: %w", err)
		}
	}

	out := pick.WeeklyPick{
		ID:          pickID,
		LeagueID:    item.ID,
		MemberID:    input.MemberID,
		EpisodeID:   episode.ID,
		CastawayID:  input.CastawayID,
		SubmittedAt: now,
	}
	if err := s.pickRepo.Upsert(ctx, out); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return pick.WeeklyPick{}, fmt.Errorf("%w: episode=%s: %w", ErrEpisodeScored, episode.ID, err)
		}
		return pick.WeeklyPick{}, fmt.Errorf("upsert weekly pick: %w", err)
	}
	return out, nil
}
