package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
	"github.com/riskibarqy/castaway-league/internal/domain/waiver"
	"github.com/riskibarqy/castaway-league/internal/platform/id"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
)

const defaultWaiverWorkers = 4

type SubmitRankingInput struct {
	LeagueID    string   `validate:"required"`
	MemberID    string   `validate:"required"`
	EpisodeID   string   `validate:"required"`
	CastawayIDs []string `validate:"required,min=1,dive,required"`
}

type WaiverRunResult struct {
	EpisodeCount int               `json:"episode_count"`
	UnitCount    int               `json:"unit_count"`
	SettledCount int               `json:"settled_count"`
	SkippedCount int               `json:"skipped_count"`
	FailedCount  int               `json:"failed_count"`
	WorkerCount  int               `json:"worker_count"`
	Units        []WaiverUnitResult `json:"units"`
	Results      []waiver.Result    `json:"results"`
}

type WaiverUnitResult struct {
	LeagueID   string `json:"league_id"`
	EpisodeID  string `json:"episode_id"`
	Status     string `json:"status"`
	Claims     int    `json:"claims"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

type waiverUnit struct {
	leagueID string
	episode  season.Episode
}

type waiverUnitOutcome struct {
	row     WaiverUnitResult
	results []waiver.Result
}

type WaiverService struct {
	tx         store.Transactor
	leagueRepo league.Repository
	seasonRepo season.Repository
	rosterRepo roster.Repository
	waiverRepo waiver.Repository
	ids        id.Generator
	events     eventEmitter
	logger     *logging.Logger
	now        func() time.Time
	maxWorkers int
}

func NewWaiverService(
	tx store.Transactor,
	leagueRepo league.Repository,
	seasonRepo season.Repository,
	rosterRepo roster.Repository,
	waiverRepo waiver.Repository,
	ids id.Generator,
	publisher EventPublisher,
	logger *logging.Logger,
) *WaiverService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WaiverService{
		tx:         tx,
		leagueRepo: leagueRepo,
		seasonRepo: seasonRepo,
		rosterRepo: rosterRepo,
		waiverRepo: waiverRepo,
		ids:        ids,
		events:     newEventEmitter(publisher, ids, logger),
		logger:     logger,
		now:        time.Now,
		maxWorkers: defaultWaiverWorkers,
	}
}

func (s *WaiverService) SetMaxWorkers(n int) {
	if n > 0 {
		s.maxWorkers = n
	}
}

// SubmitRanking stores the member's preference list while the episode's
// waiver window is open. A later submission replaces the earlier one.
func (s *WaiverService) SubmitRanking(ctx context.Context, input SubmitRankingInput) (waiver.Ranking, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.SubmitRanking")
	defer span.End()

	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.MemberID = strings.TrimSpace(input.MemberID)
	input.EpisodeID = strings.TrimSpace(input.EpisodeID)
	input.CastawayIDs = normalizeIDs(input.CastawayIDs)
	if err := validateInput(ctx, input); err != nil {
		return waiver.Ranking{}, err
	}

	now := s.now().UTC()
	item, exists, err := s.leagueRepo.GetByID(ctx, input.LeagueID)
	if err != nil {
		return waiver.Ranking{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return waiver.Ranking{}, fmt.Errorf("%w: league=%s", ErrNotFound, input.LeagueID)
	}
	members, err := s.leagueRepo.ListMembers(ctx, item.ID)
	if err != nil {
		return waiver.Ranking{}, fmt.Errorf("list league members: %w", err)
	}
	if !containsMember(members, input.MemberID) {
		return waiver.Ranking{}, fmt.Errorf("%w: member=%s league=%s", ErrNotLeagueMember, input.MemberID, item.ID)
	}

	episode, exists, err := s.seasonRepo.GetEpisode(ctx, input.EpisodeID)
	if err != nil {
		return waiver.Ranking{}, fmt.Errorf("get episode: %w", err)
	}
	if !exists || episode.SeasonID != item.SeasonID {
		return waiver.Ranking{}, fmt.Errorf("%w: episode=%s", ErrNotFound, input.EpisodeID)
	}
	if !episode.WaiverWindowOpen(now) {
		return waiver.Ranking{}, fmt.Errorf("%w: waivers for episode=%s open %s close %s",
			ErrWindowClosed, episode.ID, episode.WaiverOpenAt.Format(time.RFC3339), episode.WaiverCloseAt.Format(time.RFC3339))
	}

	castaways, err := s.seasonRepo.ListCastaways(ctx, item.SeasonID)
	if err != nil {
		return waiver.Ranking{}, fmt.Errorf("list castaways: %w", err)
	}
	inSeason := make(map[string]struct{}, len(castaways))
	for _, c := range castaways {
		inSeason[c.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(input.CastawayIDs))
	for _, castawayID := range input.CastawayIDs {
		if _, ok := inSeason[castawayID]; !ok {
			return waiver.Ranking{}, fmt.Errorf("%w: castaway=%s is not in season=%s", ErrInvalidInput, castawayID, item.SeasonID)
		}
		if _, dup := seen[castawayID]; dup {
			return waiver.Ranking{}, fmt.Errorf("%w: castaway=%s ranked twice", ErrInvalidInput, castawayID)
		}
		seen[castawayID] = struct{}{}
	}

	ranking := waiver.Ranking{
		LeagueID:    item.ID,
		MemberID:    input.MemberID,
		EpisodeID:   episode.ID,
		CastawayIDs: input.CastawayIDs,
		SubmittedAt: now,
	}
	if err := s.waiverRepo.UpsertRanking(ctx, ranking); err != nil {
		return waiver.Ranking{}, translateStoreErr(fmt.Errorf("upsert waiver ranking: %w", err))
	}
	return ranking, nil
}

// ProcessWaivers settles every (league, episode) pair whose waiver window
// closed on a scored episode. Each pair is one transaction; pairs that
// already have results are skipped, failed pairs are retried on the next run.
// A league's episodes are settled sequentially by episode number.
func (s *WaiverService) ProcessWaivers(ctx context.Context, now time.Time) (WaiverRunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.WaiverService.ProcessWaivers")
	defer span.End()

	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()

	episodes, err := s.seasonRepo.ListWaiverReadyEpisodes(ctx, now)
	if err != nil {
		return WaiverRunResult{}, fmt.Errorf("list waiver-ready episodes: %w", err)
	}

	leaguesBySeason := make(map[string][]league.League)
	batches := make(map[string][]waiverUnit)
	leagueIDs := make([]string, 0)
	unitCount := 0
	for _, episode := range episodes {
		leagues, ok := leaguesBySeason[episode.SeasonID]
		if !ok {
			leagues, err = s.leagueRepo.ListBySeason(ctx, episode.SeasonID)
			if err != nil {
				return WaiverRunResult{}, fmt.Errorf("list leagues by season: %w", err)
			}
			leaguesBySeason[episode.SeasonID] = leagues
		}
		for _, item := range leagues {
			if !item.IsActive() {
				continue
			}
			if _, seen := batches[item.ID]; !seen {
				leagueIDs = append(leagueIDs, item.ID)
			}
			batches[item.ID] = append(batches[item.ID], waiverUnit{leagueID: item.ID, episode: episode})
			unitCount++
		}
	}
	sort.Strings(leagueIDs)

	result := WaiverRunResult{
		EpisodeCount: len(episodes),
		UnitCount:    unitCount,
		Units:        make([]WaiverUnitResult, 0, unitCount),
		Results:      make([]waiver.Result, 0),
	}
	if unitCount == 0 {
		return result, nil
	}

	workerCount := s.maxWorkers
	if workerCount > len(leagueIDs) {
		workerCount = len(leagueIDs)
	}
	result.WorkerCount = workerCount

	workers, err := ants.NewPool(workerCount)
	if err != nil {
		return WaiverRunResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer workers.Release()

	// Leagues settle in parallel; a league's episodes stay on one worker.
	outcomes := make(chan waiverUnitOutcome, unitCount)
	var wg sync.WaitGroup
	for _, leagueID := range leagueIDs {
		batch := batches[leagueID]
		sortWaiverUnits(batch)

		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()
			s.runBatch(ctx, batch, now, outcomes)
		}); err != nil {
			wg.Done()
			for _, unit := range batch {
				outcomes <- waiverUnitOutcome{row: WaiverUnitResult{
					LeagueID:  unit.leagueID,
					EpisodeID: unit.episode.ID,
					Status:    batchStatusFailed,
					Message:   fmt.Sprintf("submit to worker pool: %v", err),
				}}
			}
		}
	}
	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		result.Units = append(result.Units, outcome.row)
		result.Results = append(result.Results, outcome.results...)
		switch outcome.row.Status {
		case batchStatusSuccess:
			result.SettledCount++
		case batchStatusSkipped:
			result.SkippedCount++
		default:
			result.FailedCount++
		}
	}

	sort.SliceStable(result.Units, func(i, j int) bool {
		if result.Units[i].EpisodeID != result.Units[j].EpisodeID {
			return result.Units[i].EpisodeID < result.Units[j].EpisodeID
		}
		return result.Units[i].LeagueID < result.Units[j].LeagueID
	})
	sort.SliceStable(result.Results, func(i, j int) bool {
		a, b := result.Results[i], result.Results[j]
		if a.EpisodeID != b.EpisodeID {
			return a.EpisodeID < b.EpisodeID
		}
		if a.LeagueID != b.LeagueID {
			return a.LeagueID < b.LeagueID
		}
		return a.Position < b.Position
	})
	return result, nil
}

func sortWaiverUnits(units []waiverUnit) {
	sort.SliceStable(units, func(i, j int) bool {
		a, b := units[i].episode, units[j].episode
		if a.Number != b.Number {
			return a.Number < b.Number
		}
		return a.ID < b.ID
	})
}

// runBatch settles one league's episodes in order. After a failure the
// remaining episodes are left for the next run.
func (s *WaiverService) runBatch(ctx context.Context, batch []waiverUnit, now time.Time, outcomes chan<- waiverUnitOutcome) {
	blockedBy := ""
	for _, unit := range batch {
		if blockedBy != "" {
			outcomes <- waiverUnitOutcome{row: WaiverUnitResult{
				LeagueID:  unit.leagueID,
				EpisodeID: unit.episode.ID,
				Status:    batchStatusSkipped,
				Message:   "blocked by failed episode " + blockedBy,
			}}
			continue
		}

		outcome := s.runUnit(ctx, unit, now)
		if outcome.row.Status == batchStatusFailed {
			blockedBy = unit.episode.ID
		}
		outcomes <- outcome
	}
}

func (s *WaiverService) runUnit(ctx context.Context, unit waiverUnit, now time.Time) waiverUnitOutcome {
	start := time.Now()
	row := WaiverUnitResult{LeagueID: unit.leagueID, EpisodeID: unit.episode.ID}

	results, ran, err := s.settleLeague(ctx, unit.leagueID, unit.episode, now)
	row.DurationMs = time.Since(start).Milliseconds()
	switch {
	case err != nil:
		row.Status = batchStatusFailed
		row.Message = err.Error()
		s.logger.ErrorContext(ctx, "waiver settlement failed",
			"league_id", unit.leagueID,
			"episode_id", unit.episode.ID,
			"error", err,
		)
		return waiverUnitOutcome{row: row}
	case !ran:
		row.Status = batchStatusSkipped
		row.Message = "already settled"
		return waiverUnitOutcome{row: row}
	}

	row.Status = batchStatusSuccess
	row.Claims = len(results)
	s.logger.InfoContext(ctx, "waiver settlement completed",
		"league_id", unit.leagueID,
		"episode_id", unit.episode.ID,
		"claims", len(results),
	)
	if len(results) > 0 {
		s.events.emit(ctx, now, event.Event{
			Name:      event.WaiverSettled,
			LeagueID:  unit.leagueID,
			EpisodeID: unit.episode.ID,
			Payload:   map[string]any{"claims": len(results)},
		})
	}
	return waiverUnitOutcome{row: row, results: results}
}

// settleLeague reports ran=false when the pair was already settled.
func (s *WaiverService) settleLeague(ctx context.Context, leagueID string, episode season.Episode, now time.Time) ([]waiver.Result, bool, error) {
	var (
		results []waiver.Result
		ran     bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		results = nil
		ran = false

		item, exists, err := s.leagueRepo.GetForUpdate(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("get league: %w", err)
		}
		if !exists || !item.IsActive() {
			return nil
		}

		done, err := s.waiverRepo.HasResults(ctx, leagueID, episode.ID)
		if err != nil {
			return fmt.Errorf("check waiver results: %w", err)
		}
		if done {
			return nil
		}
		ran = true

		members, err := s.leagueRepo.ListMembers(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("list league members: %w", err)
		}
		held, err := s.rosterRepo.ListHeldByLeague(ctx, leagueID)
		if err != nil {
			return fmt.Errorf("list held roster entries: %w", err)
		}
		castaways, err := s.seasonRepo.ListCastaways(ctx, item.SeasonID)
		if err != nil {
			return fmt.Errorf("list castaways: %w", err)
		}
		rankings, err := s.waiverRepo.ListRankings(ctx, leagueID, episode.ID)
		if err != nil {
			return fmt.Errorf("list waiver rankings: %w", err)
		}

		claimants := buildClaimants(members, held, castaways, rankings)
		claims := waiver.Resolve(claimants, availablePool(castaways, held))

		for _, claim := range claims {
			result, err := s.applyClaim(ctx, item, episode.ID, claim, now)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		return nil, false, translateStoreErr(err)
	}
	return results, ran, nil
}

func (s *WaiverService) applyClaim(ctx context.Context, item league.League, episodeID string, claim waiver.Claim, now time.Time) (waiver.Result, error) {
	if err := s.rosterRepo.Drop(ctx, claim.DropEntryID, now); err != nil {
		return waiver.Result{}, fmt.Errorf("drop roster entry %s: %w", claim.DropEntryID, err)
	}

	entryID, err := s.ids.NewID()
	if err != nil {
		return waiver.Result{}, fmt.Errorf("generate roster entry id: %w", err)
	}
	entry := roster.Entry{
		ID:          entryID,
		LeagueID:    item.ID,
		MemberID:    claim.MemberID,
		CastawayID:  claim.AcquiredCastawayID,
		AcquiredVia: roster.AcquiredWaiver,
		AcquiredAt:  now,
	}
	if err := s.rosterRepo.Insert(ctx, entry, item.RosterCap); err != nil {
		return waiver.Result{}, fmt.Errorf("insert waiver roster entry: %w", err)
	}

	resultID, err := s.ids.NewID()
	if err != nil {
		return waiver.Result{}, fmt.Errorf("generate waiver result id: %w", err)
	}
	result := waiver.Result{
		ID:                 resultID,
		LeagueID:           item.ID,
		MemberID:           claim.MemberID,
		EpisodeID:          episodeID,
		DroppedCastawayID:  claim.DropCastawayID,
		AcquiredCastawayID: claim.AcquiredCastawayID,
		Position:           claim.Position,
		ProcessedAt:        now,
	}
	if err := s.waiverRepo.InsertResult(ctx, result); err != nil {
		return waiver.Result{}, fmt.Errorf("insert waiver result: %w", err)
	}
	return result, nil
}

// buildClaimants orders members worst rank first and keeps those holding an
// eliminated castaway and holding a ranking. Position counts every member.
func buildClaimants(members []league.Member, held []roster.Entry, castaways []season.Castaway, rankings []waiver.Ranking) []waiver.Claimant {
	eliminated := make(map[string]struct{})
	for _, c := range castaways {
		if c.Status == season.CastawayEliminated {
			eliminated[c.ID] = struct{}{}
		}
	}
	preferences := make(map[string][]string, len(rankings))
	for _, r := range rankings {
		preferences[r.MemberID] = r.CastawayIDs
	}
	heldBy := roster.HeldBy(held)

	out := make([]waiver.Claimant, 0, len(members))
	for i, member := range league.ByWaiverPriority(members) {
		var drop *roster.Entry
		for _, entry := range heldBy[member.ID] {
			if _, ok := eliminated[entry.CastawayID]; ok {
				drop = &entry
				break
			}
		}
		if drop == nil {
			continue
		}
		prefs := preferences[member.ID]
		if len(prefs) == 0 {
			continue
		}
		out = append(out, waiver.Claimant{
			MemberID:       member.ID,
			Position:       i + 1,
			DropEntryID:    drop.ID,
			DropCastawayID: drop.CastawayID,
			Preferences:    prefs,
		})
	}
	return out
}

func availablePool(castaways []season.Castaway, held []roster.Entry) map[string]struct{} {
	taken := roster.HeldCastaways(held)
	out := make(map[string]struct{}, len(castaways))
	for _, c := range castaways {
		if !c.IsActive() {
			continue
		}
		if _, ok := taken[c.ID]; ok {
			continue
		}
		out[c.ID] = struct{}{}
	}
	return out
}
