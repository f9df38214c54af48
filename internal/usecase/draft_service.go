package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
	"github.com/riskibarqy/castaway-league/internal/platform/id"
	"github.com/riskibarqy/castaway-league/internal/platform/keylock"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const defaultAutoDraftConcurrency = 4

type DraftPickInput struct {
	LeagueID   string `validate:"required"`
	MemberID   string `validate:"required"`
	CastawayID string `validate:"required"`
}

type SetDraftOrderInput struct {
	LeagueID  string `validate:"required"`
	Order     []string
	Randomize bool
}

type AutoDraftResult struct {
	LeagueCount    int                     `json:"league_count"`
	CompletedCount int                     `json:"completed_count"`
	SkippedCount   int                     `json:"skipped_count"`
	FailedCount    int                     `json:"failed_count"`
	Leagues        []AutoDraftLeagueResult `json:"leagues"`
}

type AutoDraftLeagueResult struct {
	LeagueID string `json:"league_id"`
	Status   string `json:"status"`
	Picks    int    `json:"picks"`
	Message  string `json:"message,omitempty"`
}

const (
	batchStatusSuccess = "success"
	batchStatusSkipped = "skipped"
	batchStatusFailed  = "failed"
)

type DraftService struct {
	tx          store.Transactor
	leagueRepo  league.Repository
	seasonRepo  season.Repository
	rosterRepo  roster.Repository
	ids         id.Generator
	locks       *keylock.Locker
	events      eventEmitter
	logger      *logging.Logger
	now         func() time.Time
	shuffle     func(n int, swap func(i, j int))
	concurrency int
}

func NewDraftService(
	tx store.Transactor,
	leagueRepo league.Repository,
	seasonRepo season.Repository,
	rosterRepo roster.Repository,
	ids id.Generator,
	publisher EventPublisher,
	logger *logging.Logger,
) *DraftService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DraftService{
		tx:          tx,
		leagueRepo:  leagueRepo,
		seasonRepo:  seasonRepo,
		rosterRepo:  rosterRepo,
		ids:         ids,
		locks:       keylock.New(),
		events:      newEventEmitter(publisher, ids, logger),
		logger:      logger,
		now:         time.Now,
		shuffle:     rand.Shuffle,
		concurrency: defaultAutoDraftConcurrency,
	}
}

// SetAutoDraftConcurrency bounds how many leagues AutoDraftAll drafts at once.
func (s *DraftService) SetAutoDraftConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

func (s *DraftService) CurrentTurn(ctx context.Context, leagueID string) (league.Turn, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.CurrentTurn")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.Turn{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	item, err := s.getLeague(ctx, leagueID, false)
	if err != nil {
		return league.Turn{}, err
	}
	if item.DraftStatus == league.DraftCompleted {
		return league.Turn{}, fmt.Errorf("%w: league=%s draft completed", ErrDraftNotInProgress, leagueID)
	}
	if len(item.DraftOrder) == 0 {
		return league.Turn{}, fmt.Errorf("%w: league=%s draft order not set", ErrPrecondition, leagueID)
	}

	picks, err := s.rosterRepo.CountDraftPicks(ctx, leagueID)
	if err != nil {
		return league.Turn{}, fmt.Errorf("count draft picks: %w", err)
	}
	return league.TurnAt(picks, item.DraftOrder)
}

// SubmitPick validates and appends one draft pick. Checks run in a fixed
// order: draft state, turn, castaway eligibility, availability, roster cap.
func (s *DraftService) SubmitPick(ctx context.Context, input DraftPickInput) (_ roster.Entry, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.SubmitPick", leagueAttr(input.LeagueID))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.MemberID = strings.TrimSpace(input.MemberID)
	input.CastawayID = strings.TrimSpace(input.CastawayID)
	if err := validateInput(ctx, input); err != nil {
		return roster.Entry{}, err
	}

	unlock := s.locks.Lock(input.LeagueID)
	defer unlock()

	now := s.now().UTC()
	var (
		entry     roster.Entry
		completed bool
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.getLeague(ctx, input.LeagueID, true)
		if err != nil {
			return err
		}
		if !item.DraftStatus.Allows(league.DraftOpPick) {
			return fmt.Errorf("%w: league=%s status=%s", ErrDraftNotInProgress, item.ID, item.DraftStatus)
		}

		members, err := s.leagueRepo.ListMembers(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("list league members: %w", err)
		}
		if !containsMember(members, input.MemberID) {
			return fmt.Errorf("%w: member=%s league=%s", ErrNotLeagueMember, input.MemberID, item.ID)
		}

		picks, err := s.rosterRepo.CountDraftPicks(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("count draft picks: %w", err)
		}
		turn, err := league.TurnAt(picks, item.DraftOrder)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPrecondition, err)
		}
		if turn.PickerMemberID != input.MemberID {
			return fmt.Errorf("%w: pick %d belongs to member=%s", ErrNotYourTurn, turn.PickNumber, turn.PickerMemberID)
		}

		castaway, err := s.getCastaway(ctx, input.CastawayID)
		if err != nil {
			return err
		}
		if castaway.SeasonID != item.SeasonID || !castaway.IsActive() {
			return fmt.Errorf("%w: castaway=%s is not draftable in league=%s", ErrInvalidInput, castaway.ID, item.ID)
		}

		held, err := s.rosterRepo.ListHeldByLeague(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("list held roster entries: %w", err)
		}
		if _, taken := roster.HeldCastaways(held)[castaway.ID]; taken {
			return fmt.Errorf("%w: castaway=%s", ErrCastawayTaken, castaway.ID)
		}
		if len(roster.HeldBy(held)[input.MemberID]) >= item.RosterCap {
			return fmt.Errorf("%w: member=%s cap=%d", ErrRosterFull, input.MemberID, item.RosterCap)
		}

		entry, err = s.appendDraftEntry(ctx, item, turn, castaway.ID, roster.AcquiredDraft, now)
		if err != nil {
			return err
		}

		completed, err = s.completeIfFull(ctx, &item, picks+1, now)
		return err
	})
	if err != nil {
		return roster.Entry{}, translateStoreErr(err)
	}

	s.logger.InfoContext(ctx, "draft pick submitted",
		"league_id", entry.LeagueID,
		"member_id", entry.MemberID,
		"castaway_id", entry.CastawayID,
		"pick_number", entry.PickNumber,
	)
	if completed {
		s.emitDraftCompleted(ctx, input.LeagueID, now, false)
	}
	return entry, nil
}

func (s *DraftService) SetDraftOrder(ctx context.Context, input SetDraftOrderInput) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.SetDraftOrder")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.Order = normalizeIDs(input.Order)
	if err := validateInput(ctx, input); err != nil {
		return league.League{}, err
	}
	if !input.Randomize && len(input.Order) == 0 {
		return league.League{}, fmt.Errorf("%w: order is required unless randomize is set", ErrInvalidInput)
	}

	unlock := s.locks.Lock(input.LeagueID)
	defer unlock()

	var out league.League
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.getLeague(ctx, input.LeagueID, true)
		if err != nil {
			return err
		}
		if !item.DraftStatus.Allows(league.DraftOpSetOrder) {
			return fmt.Errorf("%w: league=%s status=%s", ErrDraftNotPending, item.ID, item.DraftStatus)
		}

		members, err := s.leagueRepo.ListMembers(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("list league members: %w", err)
		}
		memberIDs := league.MemberIDs(members)

		order := input.Order
		if input.Randomize {
			order = s.randomOrder(memberIDs)
		} else if !league.IsPermutation(order, memberIDs) {
			return fmt.Errorf("%w: draft order must list every league member exactly once", ErrInvalidInput)
		}

		item, err = s.storeOrder(ctx, item, order)
		if err != nil {
			return err
		}
		out = item
		return nil
	})
	if err != nil {
		return league.League{}, translateStoreErr(err)
	}
	return out, nil
}

// StartDraft opens the draft, drawing a random order when none was set.
func (s *DraftService) StartDraft(ctx context.Context, leagueID string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.StartDraft")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(leagueID)
	defer unlock()

	now := s.now().UTC()
	var out league.League
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.getLeague(ctx, leagueID, true)
		if err != nil {
			return err
		}
		next, err := item.DraftStatus.Next(league.DraftOpStart)
		if err != nil {
			return fmt.Errorf("%w: league=%s status=%s", ErrDraftNotPending, item.ID, item.DraftStatus)
		}

		members, err := s.leagueRepo.ListMembers(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("list league members: %w", err)
		}
		if len(members) == 0 {
			return fmt.Errorf("%w: league=%s has no members", ErrPrecondition, item.ID)
		}
		memberIDs := league.MemberIDs(members)

		if len(item.DraftOrder) == 0 {
			item, err = s.storeOrder(ctx, item, s.randomOrder(memberIDs))
			if err != nil {
				return err
			}
		} else if !league.IsPermutation(item.DraftOrder, memberIDs) {
			return fmt.Errorf("%w: league=%s draft order is stale, set it again", ErrPrecondition, item.ID)
		}

		item.DraftStatus = next
		item.DraftStartedAt = &now
		item.UpdatedAt = now
		if err := s.leagueRepo.UpdateDraft(ctx, item); err != nil {
			return fmt.Errorf("update league draft: %w", err)
		}
		out = item
		return nil
	})
	if err != nil {
		return league.League{}, translateStoreErr(err)
	}

	s.logger.InfoContext(ctx, "draft started", "league_id", out.ID, "members", len(out.DraftOrder))
	return out, nil
}

func (s *DraftService) PauseDraft(ctx context.Context, leagueID string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.PauseDraft")
	defer span.End()

	return s.transition(ctx, leagueID, league.DraftOpPause)
}

func (s *DraftService) ResumeDraft(ctx context.Context, leagueID string) (league.League, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.ResumeDraft")
	defer span.End()

	return s.transition(ctx, leagueID, league.DraftOpResume)
}

func (s *DraftService) transition(ctx context.Context, leagueID string, op league.DraftOp) (league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	unlock := s.locks.Lock(leagueID)
	defer unlock()

	var out league.League
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.getLeague(ctx, leagueID, true)
		if err != nil {
			return err
		}
		next, err := item.DraftStatus.Next(op)
		if err != nil {
			return err
		}
		item.DraftStatus = next
		item.UpdatedAt = s.now().UTC()
		if err := s.leagueRepo.UpdateDraft(ctx, item); err != nil {
			return fmt.Errorf("update league draft: %w", err)
		}
		out = item
		return nil
	})
	if err != nil {
		return league.League{}, translateStoreErr(err)
	}
	return out, nil
}

// AutoDraftAll fills every in-progress draft whose season deadline passed.
// Leagues are independent: one failure is reported and the rest continue.
func (s *DraftService) AutoDraftAll(ctx context.Context) (AutoDraftResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.AutoDraftAll")
	defer span.End()

	now := s.now().UTC()
	leagues, err := s.leagueRepo.ListByDraftStatus(ctx, league.DraftInProgress)
	if err != nil {
		return AutoDraftResult{}, fmt.Errorf("list in-progress leagues: %w", err)
	}

	seasons := make(map[string]season.Season)
	targets := make([]league.League, 0, len(leagues))
	for _, item := range leagues {
		sn, ok := seasons[item.SeasonID]
		if !ok {
			found, exists, err := s.seasonRepo.GetSeason(ctx, item.SeasonID)
			if err != nil {
				return AutoDraftResult{}, fmt.Errorf("get season: %w", err)
			}
			if !exists {
				s.logger.WarnContext(ctx, "auto draft skipped league with unknown season", "league_id", item.ID, "season_id", item.SeasonID)
				continue
			}
			sn = found
			seasons[item.SeasonID] = sn
		}
		if sn.DraftDeadlinePassed(now) {
			targets = append(targets, item)
		}
	}

	result := AutoDraftResult{
		LeagueCount: len(targets),
		Leagues:     make([]AutoDraftLeagueResult, 0, len(targets)),
	}
	if len(targets) == 0 {
		return result, nil
	}

	workers := pool.NewWithResults[AutoDraftLeagueResult]().WithMaxGoroutines(s.concurrency)
	for _, item := range targets {
		leagueID := item.ID
		workers.Go(func() AutoDraftLeagueResult {
			row := AutoDraftLeagueResult{LeagueID: leagueID}
			picks, drafted, err := s.autoDraftLeague(ctx, leagueID, now)
			row.Picks = picks
			switch {
			case err != nil:
				row.Status = batchStatusFailed
				row.Message = err.Error()
				s.logger.ErrorContext(ctx, "auto draft failed", "league_id", leagueID, "error", err)
			case !drafted:
				row.Status = batchStatusSkipped
				row.Message = "draft no longer in progress"
			default:
				row.Status = batchStatusSuccess
			}
			return row
		})
	}
	result.Leagues = workers.Wait()

	sort.SliceStable(result.Leagues, func(i, j int) bool {
		return result.Leagues[i].LeagueID < result.Leagues[j].LeagueID
	})
	for _, row := range result.Leagues {
		switch row.Status {
		case batchStatusSuccess:
			result.CompletedCount++
		case batchStatusSkipped:
			result.SkippedCount++
		default:
			result.FailedCount++
		}
	}
	return result, nil
}

func (s *DraftService) autoDraftLeague(ctx context.Context, leagueID string, now time.Time) (int, bool, error) {
	unlock := s.locks.Lock(leagueID)
	defer unlock()

	var (
		made    int
		drafted bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		made = 0
		item, err := s.getLeague(ctx, leagueID, true)
		if err != nil {
			return err
		}
		if item.DraftStatus != league.DraftInProgress {
			return nil
		}

		picks, err := s.rosterRepo.CountDraftPicks(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("count draft picks: %w", err)
		}
		held, err := s.rosterRepo.ListHeldByLeague(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("list held roster entries: %w", err)
		}
		castaways, err := s.seasonRepo.ListCastaways(ctx, item.SeasonID)
		if err != nil {
			return fmt.Errorf("list castaways: %w", err)
		}

		taken := roster.HeldCastaways(held)
		holdings := make(map[string]int, len(item.DraftOrder))
		for memberID, entries := range roster.HeldBy(held) {
			holdings[memberID] = len(entries)
		}
		available := make([]string, 0, len(castaways))
		for _, c := range castaways {
			if _, ok := taken[c.ID]; ok || !c.IsActive() {
				continue
			}
			available = append(available, c.ID)
		}

		size := league.DraftSize(len(item.DraftOrder), item.RosterCap)
		for slot := picks; slot < size && len(available) > 0; slot++ {
			turn, err := league.TurnAt(slot, item.DraftOrder)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrPrecondition, err)
			}
			if holdings[turn.PickerMemberID] >= item.RosterCap {
				continue
			}

			if _, err := s.appendDraftEntry(ctx, item, turn, available[0], roster.AcquiredAutoDraft, now); err != nil {
				return err
			}
			available = available[1:]
			holdings[turn.PickerMemberID]++
			made++
		}

		next, err := item.DraftStatus.Next(league.DraftOpComplete)
		if err != nil {
			return err
		}
		item.DraftStatus = next
		item.DraftCompletedAt = &now
		item.UpdatedAt = now
		if err := s.leagueRepo.UpdateDraft(ctx, item); err != nil {
			return fmt.Errorf("update league draft: %w", err)
		}
		drafted = true
		return nil
	})
	if err != nil {
		return 0, false, translateStoreErr(err)
	}
	if drafted {
		s.logger.InfoContext(ctx, "auto draft completed league", "league_id", leagueID, "picks", made)
		s.emitDraftCompleted(ctx, leagueID, now, true)
	}
	return made, drafted, nil
}

func (s *DraftService) appendDraftEntry(
	ctx context.Context,
	item league.League,
	turn league.Turn,
	castawayID string,
	via roster.AcquiredVia,
	now time.Time,
) (roster.Entry, error) {
	entryID, err := s.ids.NewID()
	if err != nil {
		return roster.Entry{}, fmt.Errorf("generate roster entry id: %w", err)
	}
	entry := roster.Entry{
		ID:          entryID,
		LeagueID:    item.ID,
		MemberID:    turn.PickerMemberID,
		CastawayID:  castawayID,
		Round:       turn.Round,
		PickNumber:  turn.PickNumber,
		AcquiredVia: via,
		AcquiredAt:  now,
	}
	if err := s.rosterRepo.Insert(ctx, entry, item.RosterCap); err != nil {
		switch {
		case errors.Is(err, roster.ErrRosterFull):
			return roster.Entry{}, fmt.Errorf("%w: member=%s cap=%d", ErrRosterFull, entry.MemberID, item.RosterCap)
		case errors.Is(err, store.ErrConflict):
			return roster.Entry{}, fmt.Errorf("%w: castaway=%s", ErrCastawayTaken, castawayID)
		}
		return roster.Entry{}, fmt.Errorf("insert roster entry: %w", err)
	}
	return entry, nil
}

// completeIfFull sizes the draft by the order fixed at start, so members
// added later never extend it.
func (s *DraftService) completeIfFull(ctx context.Context, item *league.League, picks int, now time.Time) (bool, error) {
	if picks < league.DraftSize(len(item.DraftOrder), item.RosterCap) {
		return false, nil
	}
	next, err := item.DraftStatus.Next(league.DraftOpComplete)
	if err != nil {
		return false, err
	}
	item.DraftStatus = next
	item.DraftCompletedAt = &now
	item.UpdatedAt = now
	if err := s.leagueRepo.UpdateDraft(ctx, *item); err != nil {
		return false, fmt.Errorf("update league draft: %w", err)
	}
	return true, nil
}

func (s *DraftService) storeOrder(ctx context.Context, item league.League, order []string) (league.League, error) {
	positions := make(map[string]int, len(order))
	for i, memberID := range order {
		positions[memberID] = i + 1
	}
	if err := s.leagueRepo.UpdateDraftPositions(ctx, item.ID, positions); err != nil {
		return league.League{}, fmt.Errorf("update draft positions: %w", err)
	}

	item.DraftOrder = append([]string(nil), order...)
	item.UpdatedAt = s.now().UTC()
	if err := s.leagueRepo.UpdateDraft(ctx, item); err != nil {
		return league.League{}, fmt.Errorf("update league draft: %w", err)
	}
	return item, nil
}

func (s *DraftService) randomOrder(memberIDs []string) []string {
	order := append([]string(nil), memberIDs...)
	s.shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

func (s *DraftService) getLeague(ctx context.Context, leagueID string, forUpdate bool) (league.League, error) {
	var (
		item   league.League
		exists bool
		err    error
	)
	if forUpdate {
		item, exists, err = s.leagueRepo.GetForUpdate(ctx, leagueID)
	} else {
		item, exists, err = s.leagueRepo.GetByID(ctx, leagueID)
	}
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return item, nil
}

func (s *DraftService) getCastaway(ctx context.Context, castawayID string) (season.Castaway, error) {
	item, exists, err := s.seasonRepo.GetCastaway(ctx, castawayID)
	if err != nil {
		return season.Castaway{}, fmt.Errorf("get castaway: %w", err)
	}
	if !exists {
		return season.Castaway{}, fmt.Errorf("%w: castaway=%s", ErrNotFound, castawayID)
	}
	return item, nil
}

func (s *DraftService) emitDraftCompleted(ctx context.Context, leagueID string, now time.Time, auto bool) {
	s.events.emit(ctx, now, event.Event{
		Name:     event.DraftCompleted,
		LeagueID: leagueID,
		Payload:  map[string]any{"auto_draft": auto},
	})
}

func containsMember(members []league.Member, memberID string) bool {
	for _, m := range members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}
