package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/repository/memory"
)

var fixtureNow = time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC)

type sequenceIDs struct {
	mu   sync.Mutex
	next int
}

func (g *sequenceIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%04d", g.next), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) names() []event.Name {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Name, 0, len(p.events))
	for _, evt := range p.events {
		out = append(out, evt.Name)
	}
	return out
}

type engineFixture struct {
	store     *memory.Store
	leagues   *memory.LeagueRepository
	seasons   *memory.SeasonRepository
	rosters   *memory.RosterRepository
	picks     *memory.PickRepository
	scores    *memory.ScoringRepository
	waivers   *memory.WaiverRepository
	events    *recordingPublisher
	draft     *DraftService
	waiver    *WaiverService
	scoring   *ScoringService
	standings *StandingsService
	weekly    *WeeklyPickService
}

func newEngineFixture(t *testing.T, seed memory.Seed) *engineFixture {
	t.Helper()

	st := memory.NewStore()
	if err := st.Load(seed); err != nil {
		t.Fatalf("load seed: %v", err)
	}

	f := &engineFixture{
		store:   st,
		leagues: memory.NewLeagueRepository(st),
		seasons: memory.NewSeasonRepository(st),
		rosters: memory.NewRosterRepository(st),
		picks:   memory.NewPickRepository(st),
		scores:  memory.NewScoringRepository(st),
		waivers: memory.NewWaiverRepository(st),
		events:  &recordingPublisher{},
	}
	ids := &sequenceIDs{}
	clock := func() time.Time { return fixtureNow }

	f.draft = NewDraftService(st, f.leagues, f.seasons, f.rosters, ids, f.events, nil)
	f.draft.now = clock
	f.standings = NewStandingsService(st, f.leagues, f.picks)
	f.scoring = NewScoringService(st, f.leagues, f.seasons, f.picks, f.scores, f.standings, ids, f.events, nil)
	f.scoring.now = clock
	f.waiver = NewWaiverService(st, f.leagues, f.seasons, f.rosters, f.waivers, ids, f.events, nil)
	f.waiver.now = clock
	f.weekly = NewWeeklyPickService(st, f.leagues, f.seasons, f.rosters, f.picks, ids)
	f.weekly.now = clock
	return f
}

// baseSeed is one season with the given castaways and one league of the
// given members, draft pending.
func baseSeed(memberIDs []string, castawayNames ...string) memory.Seed {
	seed := memory.Seed{
		Seasons: []season.Season{{ID: "s1", Name: "Season", DraftDeadline: fixtureNow.Add(-time.Hour)}},
		Leagues: []league.League{{ID: "l1", SeasonID: "s1", Name: "League", RosterCap: league.DefaultRosterCap, DraftStatus: league.DraftPending}},
		Rules: []scoring.Rule{
			{ID: "r-immunity", SeasonID: "s1", Code: "IMMUNITY_WIN", Points: 25},
			{ID: "r-confessional", SeasonID: "s1", Code: "CONFESSIONAL", Points: 3},
			{ID: "r-penalty", Code: "PENALTY", Points: -2},
			{ID: "r-voted-out", Code: "VOTED_OUT", Points: 0},
		},
	}
	for _, name := range castawayNames {
		seed.Castaways = append(seed.Castaways, season.Castaway{ID: name, SeasonID: "s1", Name: name, Status: season.CastawayActive})
	}
	for _, memberID := range memberIDs {
		seed.Members = append(seed.Members, league.Member{ID: memberID, LeagueID: "l1", UserID: "u-" + memberID})
	}
	return seed
}

// completedSeed is baseSeed with the draft finished from the given holdings.
func completedSeed(holdings map[string][]string, memberIDs []string, castawayNames ...string) memory.Seed {
	seed := baseSeed(memberIDs, castawayNames...)
	seed.Leagues[0].DraftStatus = league.DraftCompleted
	seed.Leagues[0].DraftOrder = memberIDs
	for i := range seed.Members {
		seed.Members[i].DraftPosition = i + 1
	}
	n := 0
	for _, memberID := range memberIDs {
		for _, castawayID := range holdings[memberID] {
			n++
			seed.Entries = append(seed.Entries, roster.Entry{
				ID:          fmt.Sprintf("seed-entry-%02d", n),
				LeagueID:    "l1",
				MemberID:    memberID,
				CastawayID:  castawayID,
				PickNumber:  n,
				Round:       1,
				AcquiredVia: roster.AcquiredDraft,
				AcquiredAt:  fixtureNow.Add(-30 * 24 * time.Hour),
			})
		}
	}
	return seed
}

func heldCastaways(t *testing.T, f *engineFixture, memberID string) []string {
	t.Helper()
	entries, err := f.rosters.ListHeldByMember(context.Background(), "l1", memberID)
	if err != nil {
		t.Fatalf("list held: %v", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.CastawayID)
	}
	return out
}
