package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/pick"
	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
	"github.com/riskibarqy/castaway-league/internal/platform/id"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	"golang.org/x/sync/singleflight"
)

// ScoringSessionView is the scoring surface of one episode.
type ScoringSessionView struct {
	Session   scoring.Session
	Episode   season.Episode
	Castaways []season.Castaway
	Rules     []scoring.Rule
	Scores    []scoring.Score
}

type SaveProgressInput struct {
	EpisodeID string          `validate:"required"`
	Entries   []scoring.Entry `validate:"dive"`
}

type FinalizeResult struct {
	EpisodeID             string   `json:"episode_id"`
	EliminatedCastawayIDs []string `json:"eliminated_castaway_ids"`
	PickCount             int      `json:"pick_count"`
	LeagueCount           int      `json:"league_count"`
}

type ScoringService struct {
	tx          store.Transactor
	leagueRepo  league.Repository
	seasonRepo  season.Repository
	pickRepo    pick.Repository
	scoringRepo scoring.Repository
	standings   *StandingsService
	ids         id.Generator
	events      eventEmitter
	logger      *logging.Logger
	now         func() time.Time
	finalizing  singleflight.Group
}

func NewScoringService(
	tx store.Transactor,
	leagueRepo league.Repository,
	seasonRepo season.Repository,
	pickRepo pick.Repository,
	scoringRepo scoring.Repository,
	standings *StandingsService,
	ids id.Generator,
	publisher EventPublisher,
	logger *logging.Logger,
) *ScoringService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if standings == nil {
		standings = NewStandingsService(tx, leagueRepo, pickRepo)
	}
	return &ScoringService{
		tx:          tx,
		leagueRepo:  leagueRepo,
		seasonRepo:  seasonRepo,
		pickRepo:    pickRepo,
		scoringRepo: scoringRepo,
		standings:   standings,
		ids:         ids,
		events:      newEventEmitter(publisher, ids, logger),
		logger:      logger,
		now:         time.Now,
	}
}

// StartSession returns the episode's scoring session, creating a draft one
// on first call.
func (s *ScoringService) StartSession(ctx context.Context, episodeID string) (ScoringSessionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.StartSession")
	defer span.End()

	episode, err := s.getEpisode(ctx, episodeID)
	if err != nil {
		return ScoringSessionView{}, err
	}

	session, exists, err := s.scoringRepo.GetSession(ctx, episode.ID)
	if err != nil {
		return ScoringSessionView{}, fmt.Errorf("get scoring session: %w", err)
	}
	if !exists {
		sessionID, err := s.ids.NewID()
		if err != nil {
			return ScoringSessionView{}, fmt.Errorf("generate session id: %w", err)
		}
		session = scoring.Session{
			ID:        sessionID,
			EpisodeID: episode.ID,
			Status:    scoring.SessionDraft,
			CreatedAt: s.now().UTC(),
		}
		if err := s.scoringRepo.CreateSession(ctx, session); err != nil {
			if !errors.Is(err, store.ErrConflict) {
				return ScoringSessionView{}, fmt.Errorf("create scoring session: %w", err)
			}
			// Lost a creation race; read the winner's row.
			session, _, err = s.scoringRepo.GetSession(ctx, episode.ID)
			if err != nil {
				return ScoringSessionView{}, fmt.Errorf("get scoring session: %w", err)
			}
		}
	}

	castaways, err := s.seasonRepo.ListCastaways(ctx, episode.SeasonID)
	if err != nil {
		return ScoringSessionView{}, fmt.Errorf("list castaways: %w", err)
	}
	active := make([]season.Castaway, 0, len(castaways))
	for _, c := range castaways {
		if c.IsActive() {
			active = append(active, c)
		}
	}
	rules, err := s.scoringRepo.ListRules(ctx, episode.SeasonID)
	if err != nil {
		return ScoringSessionView{}, fmt.Errorf("list scoring rules: %w", err)
	}
	scores, err := s.scoringRepo.ListScores(ctx, episode.ID)
	if err != nil {
		return ScoringSessionView{}, fmt.Errorf("list episode scores: %w", err)
	}

	return ScoringSessionView{
		Session:   session,
		Episode:   episode,
		Castaways: active,
		Rules:     rules,
		Scores:    scores,
	}, nil
}

// SaveProgress applies autosave rows: positive quantities upsert, zero clears.
func (s *ScoringService) SaveProgress(ctx context.Context, input SaveProgressInput) ([]scoring.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.SaveProgress")
	defer span.End()

	input.EpisodeID = strings.TrimSpace(input.EpisodeID)
	for i := range input.Entries {
		input.Entries[i].CastawayID = strings.TrimSpace(input.Entries[i].CastawayID)
		input.Entries[i].RuleID = strings.TrimSpace(input.Entries[i].RuleID)
	}
	if err := validateInput(ctx, input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var out []scoring.Score
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		episode, err := s.getEpisode(ctx, input.EpisodeID)
		if err != nil {
			return err
		}
		session, exists, err := s.scoringRepo.GetSession(ctx, episode.ID)
		if err != nil {
			return fmt.Errorf("get scoring session: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: episode=%s", ErrSessionNotStarted, episode.ID)
		}
		if _, err := session.Status.Next(scoring.SessionOpSave); err != nil {
			return fmt.Errorf("%w: episode=%s", ErrSessionFinalized, episode.ID)
		}

		rules, err := s.scoringRepo.ListRules(ctx, episode.SeasonID)
		if err != nil {
			return fmt.Errorf("list scoring rules: %w", err)
		}
		rulesByID := scoring.RulesByID(rules)
		castaways, err := s.seasonRepo.ListCastaways(ctx, episode.SeasonID)
		if err != nil {
			return fmt.Errorf("list castaways: %w", err)
		}
		inSeason := make(map[string]struct{}, len(castaways))
		for _, c := range castaways {
			inSeason[c.ID] = struct{}{}
		}

		for _, entry := range input.Entries {
			if _, ok := inSeason[entry.CastawayID]; !ok {
				return fmt.Errorf("%w: castaway=%s is not in the episode season", ErrInvalidInput, entry.CastawayID)
			}
			if _, ok := rulesByID[entry.RuleID]; !ok {
				return fmt.Errorf("%w: rule=%s does not apply to the episode", ErrInvalidInput, entry.RuleID)
			}
		}

		for _, entry := range input.Entries {
			if entry.Quantity == 0 {
				if err := s.scoringRepo.DeleteScore(ctx, episode.ID, entry.CastawayID, entry.RuleID); err != nil {
					return fmt.Errorf("delete episode score: %w", err)
				}
				continue
			}

			scoreID, err := s.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate score id: %w", err)
			}
			rule := rulesByID[entry.RuleID]
			score := scoring.Score{
				ID:         scoreID,
				EpisodeID:  episode.ID,
				CastawayID: entry.CastawayID,
				RuleID:     rule.ID,
				Quantity:   entry.Quantity,
				Points:     rule.Points * entry.Quantity,
				UpdatedAt:  now,
			}
			if err := s.scoringRepo.UpsertScore(ctx, score); err != nil {
				return fmt.Errorf("upsert episode score: %w", err)
			}
		}

		out, err = s.scoringRepo.ListScores(ctx, episode.ID)
		if err != nil {
			return fmt.Errorf("list episode scores: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return out, nil
}

// Finalize freezes the episode and fans out pick points, standings and
// eliminations in one unit of work. Concurrent calls for the same episode
// share one execution.
func (s *ScoringService) Finalize(ctx context.Context, episodeID string) (_ FinalizeResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.Finalize", episodeAttr(episodeID))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	episodeID = strings.TrimSpace(episodeID)
	if episodeID == "" {
		return FinalizeResult{}, fmt.Errorf("%w: episode id is required", ErrInvalidInput)
	}

	value, err, _ := s.finalizing.Do("scoring:finalize:"+episodeID, func() (any, error) {
		return s.finalizeOnce(ctx, episodeID)
	})
	if err != nil {
		return FinalizeResult{}, err
	}
	return value.(FinalizeResult), nil
}

func (s *ScoringService) finalizeOnce(ctx context.Context, episodeID string) (FinalizeResult, error) {
	episode, err := s.getEpisode(ctx, episodeID)
	if err != nil {
		return FinalizeResult{}, err
	}
	session, exists, err := s.scoringRepo.GetSession(ctx, episode.ID)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("get scoring session: %w", err)
	}
	if !exists {
		return FinalizeResult{}, fmt.Errorf("%w: episode=%s", ErrSessionNotStarted, episode.ID)
	}
	if session.IsFinalized() {
		return FinalizeResult{}, fmt.Errorf("%w: episode=%s", ErrSessionFinalized, episode.ID)
	}

	now := s.now().UTC()
	result := FinalizeResult{EpisodeID: episode.ID}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		result = FinalizeResult{EpisodeID: episode.ID}

		if err := s.scoringRepo.FinalizeSession(ctx, episode.ID, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("%w: episode=%s", ErrSessionFinalized, episode.ID)
			}
			return fmt.Errorf("finalize scoring session: %w", err)
		}
		if err := s.seasonRepo.MarkEpisodeScored(ctx, episode.ID); err != nil {
			return fmt.Errorf("mark episode scored: %w", err)
		}

		scores, err := s.scoringRepo.ListScores(ctx, episode.ID)
		if err != nil {
			return fmt.Errorf("list episode scores: %w", err)
		}
		totals := scoring.CastawayTotals(scores)

		result.PickCount, err = s.pickRepo.ApplyEpisodePoints(ctx, episode.ID, totals)
		if err != nil {
			return fmt.Errorf("apply episode points: %w", err)
		}

		leagues, err := s.leagueRepo.ListBySeason(ctx, episode.SeasonID)
		if err != nil {
			return fmt.Errorf("list leagues by season: %w", err)
		}
		for _, item := range leagues {
			if !item.IsActive() {
				continue
			}
			if _, err := s.standings.recompute(ctx, item.ID); err != nil {
				return fmt.Errorf("recompute standings league=%s: %w", item.ID, err)
			}
			result.LeagueCount++
		}

		rules, err := s.scoringRepo.ListRules(ctx, episode.SeasonID)
		if err != nil {
			return fmt.Errorf("list scoring rules: %w", err)
		}
		eliminated, err := s.seasonRepo.EliminateCastaways(ctx, scoring.EliminatedCastaways(scores, rules), episode.ID)
		if err != nil {
			return fmt.Errorf("eliminate castaways: %w", err)
		}
		result.EliminatedCastawayIDs = eliminated
		return nil
	})
	if err != nil {
		return FinalizeResult{}, translateStoreErr(err)
	}
	if result.EliminatedCastawayIDs == nil {
		result.EliminatedCastawayIDs = []string{}
	}

	s.logger.InfoContext(ctx, "episode finalized",
		"episode_id", episode.ID,
		"picks", result.PickCount,
		"leagues", result.LeagueCount,
		"eliminated", len(result.EliminatedCastawayIDs),
	)

	events := make([]event.Event, 0, len(result.EliminatedCastawayIDs)+1)
	events = append(events, event.Event{
		Name:      event.EpisodeFinalized,
		EpisodeID: episode.ID,
		Payload: map[string]any{
			"picks":      result.PickCount,
			"leagues":    result.LeagueCount,
			"eliminated": result.EliminatedCastawayIDs,
		},
	})
	for _, castawayID := range result.EliminatedCastawayIDs {
		events = append(events, event.Event{
			Name:       event.CastawayEliminated,
			EpisodeID:  episode.ID,
			CastawayID: castawayID,
		})
	}
	s.events.emit(ctx, now, events...)

	return result, nil
}

func (s *ScoringService) getEpisode(ctx context.Context, episodeID string) (season.Episode, error) {
	episodeID = strings.TrimSpace(episodeID)
	if episodeID == "" {
		return season.Episode{}, fmt.Errorf("%w: episode id is required", ErrInvalidInput)
	}
	episode, exists, err := s.seasonRepo.GetEpisode(ctx, episodeID)
	if err != nil {
		return season.Episode{}, fmt.Errorf("get episode: %w", err)
	}
	if !exists {
		return season.Episode{}, fmt.Errorf("%w: episode=%s", ErrNotFound, episodeID)
	}
	return episode, nil
}
