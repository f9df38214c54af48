package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/event"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/repository/memory"
	leaguemock "github.com/riskibarqy/castaway-league/internal/mocks/domain/league"
	"github.com/stretchr/testify/mock"
)

func startDraft(t *testing.T, f *engineFixture, order []string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.draft.SetDraftOrder(ctx, SetDraftOrderInput{LeagueID: "l1", Order: order}); err != nil {
		t.Fatalf("SetDraftOrder error: %v", err)
	}
	if _, err := f.draft.StartDraft(ctx, "l1"); err != nil {
		t.Fatalf("StartDraft error: %v", err)
	}
}

func TestDraftService_SnakeDraftEndToEnd(t *testing.T) {
	members := []string{"A", "B", "C", "D"}
	f := newEngineFixture(t, baseSeed(members, "c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9"))
	ctx := context.Background()
	startDraft(t, f, members)

	wantPickers := []string{"A", "B", "C", "D", "D", "C", "B", "A"}
	for i, picker := range wantPickers {
		turn, err := f.draft.CurrentTurn(ctx, "l1")
		if err != nil {
			t.Fatalf("CurrentTurn error at pick %d: %v", i+1, err)
		}
		if turn.PickerMemberID != picker || turn.PickNumber != i+1 {
			t.Fatalf("pick %d: expected %s, got %+v", i+1, picker, turn)
		}

		castawayID := []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "c8"}[i]
		entry, err := f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: picker, CastawayID: castawayID})
		if err != nil {
			t.Fatalf("SubmitPick error at pick %d: %v", i+1, err)
		}
		if entry.PickNumber != i+1 || entry.Round != i/4+1 || entry.AcquiredVia != roster.AcquiredDraft {
			t.Fatalf("unexpected entry: %+v", entry)
		}
	}

	item, _, err := f.leagues.GetByID(ctx, "l1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if item.DraftStatus != league.DraftCompleted || item.DraftCompletedAt == nil {
		t.Fatalf("expected completed draft, got %+v", item)
	}
	if got := heldCastaways(t, f, "D"); len(got) != 2 || got[0] != "c4" || got[1] != "c5" {
		t.Fatalf("D should hold c4 and c5, got %v", got)
	}
	if names := f.events.names(); len(names) != 1 || names[0] != event.DraftCompleted {
		t.Fatalf("expected one draft_completed event, got %v", names)
	}

	_, err = f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "A", CastawayID: "c9"})
	if !errors.Is(err, ErrDraftNotInProgress) {
		t.Fatalf("expected ErrDraftNotInProgress after completion, got %v", err)
	}
}

func TestDraftService_SubmitPick_TurnCheckedBeforeAvailability(t *testing.T) {
	members := []string{"A", "B"}
	f := newEngineFixture(t, baseSeed(members, "c1", "c2", "c3"))
	ctx := context.Background()
	startDraft(t, f, members)

	if _, err := f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "A", CastawayID: "c1"}); err != nil {
		t.Fatalf("first pick: %v", err)
	}

	_, err := f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "A", CastawayID: "c1"})
	if !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ownership category, got %v", err)
	}

	_, err = f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "B", CastawayID: "c1"})
	if !errors.Is(err, ErrCastawayTaken) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrCastawayTaken, got %v", err)
	}

	_, err = f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "Z", CastawayID: "c2"})
	if !errors.Is(err, ErrNotLeagueMember) {
		t.Fatalf("expected ErrNotLeagueMember, got %v", err)
	}

	_, err = f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "B", CastawayID: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDraftService_SubmitPick_RequiresInProgress(t *testing.T) {
	f := newEngineFixture(t, baseSeed([]string{"A", "B"}, "c1", "c2"))
	ctx := context.Background()

	_, err := f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "A", CastawayID: "c1"})
	if !errors.Is(err, ErrDraftNotInProgress) || !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected ErrDraftNotInProgress, got %v", err)
	}

	_, err = f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "A"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDraftService_ConcurrentPicksOnlyOneWins(t *testing.T) {
	members := []string{"A", "B"}
	f := newEngineFixture(t, baseSeed(members, "c1", "c2", "c3", "c4"))
	ctx := context.Background()
	startDraft(t, f, members)

	errs := make(chan error, 2)
	for _, castawayID := range []string{"c1", "c2"} {
		go func() {
			_, err := f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "A", CastawayID: castawayID})
			errs <- err
		}()
	}

	var ok, rejected int
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrNotYourTurn):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || rejected != 1 {
		t.Fatalf("expected one winner and one rejection, got ok=%d rejected=%d", ok, rejected)
	}
}

func TestDraftService_SetDraftOrder(t *testing.T) {
	members := []string{"A", "B", "C"}
	f := newEngineFixture(t, baseSeed(members, "c1"))
	ctx := context.Background()

	_, err := f.draft.SetDraftOrder(ctx, SetDraftOrderInput{LeagueID: "l1", Order: []string{"A", "B"}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for partial order, got %v", err)
	}

	// reverse the member list deterministically
	f.draft.shuffle = func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	item, err := f.draft.SetDraftOrder(ctx, SetDraftOrderInput{LeagueID: "l1", Randomize: true})
	if err != nil {
		t.Fatalf("SetDraftOrder error: %v", err)
	}
	if len(item.DraftOrder) != 3 || item.DraftOrder[0] != "C" || item.DraftOrder[2] != "A" {
		t.Fatalf("unexpected order: %v", item.DraftOrder)
	}

	got, err := f.leagues.ListMembers(ctx, "l1")
	if err != nil {
		t.Fatalf("ListMembers error: %v", err)
	}
	if got[0].ID != "C" || got[0].DraftPosition != 1 || got[2].ID != "A" || got[2].DraftPosition != 3 {
		t.Fatalf("unexpected draft positions: %+v", got)
	}

	if _, err := f.draft.StartDraft(ctx, "l1"); err != nil {
		t.Fatalf("StartDraft error: %v", err)
	}
	_, err = f.draft.SetDraftOrder(ctx, SetDraftOrderInput{LeagueID: "l1", Order: []string{"A", "B", "C"}})
	if !errors.Is(err, ErrDraftNotPending) {
		t.Fatalf("expected ErrDraftNotPending, got %v", err)
	}
	_, err = f.draft.StartDraft(ctx, "l1")
	if !errors.Is(err, ErrDraftNotPending) {
		t.Fatalf("expected ErrDraftNotPending on second start, got %v", err)
	}
}

func TestDraftService_StartDraftRandomizesMissingOrder(t *testing.T) {
	f := newEngineFixture(t, baseSeed([]string{"A", "B", "C", "D"}, "c1"))

	item, err := f.draft.StartDraft(context.Background(), "l1")
	if err != nil {
		t.Fatalf("StartDraft error: %v", err)
	}
	if item.DraftStatus != league.DraftInProgress || item.DraftStartedAt == nil {
		t.Fatalf("unexpected league: %+v", item)
	}
	if !league.IsPermutation(item.DraftOrder, []string{"A", "B", "C", "D"}) {
		t.Fatalf("order is not a permutation: %v", item.DraftOrder)
	}
}

func TestDraftService_PauseAndResume(t *testing.T) {
	members := []string{"A", "B"}
	f := newEngineFixture(t, baseSeed(members, "c1", "c2"))
	ctx := context.Background()
	startDraft(t, f, members)

	if _, err := f.draft.PauseDraft(ctx, "l1"); err != nil {
		t.Fatalf("PauseDraft error: %v", err)
	}
	_, err := f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "A", CastawayID: "c1"})
	if !errors.Is(err, ErrDraftNotInProgress) {
		t.Fatalf("expected ErrDraftNotInProgress while paused, got %v", err)
	}
	if _, err := f.draft.PauseDraft(ctx, "l1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double pause, got %v", err)
	}

	item, err := f.draft.ResumeDraft(ctx, "l1")
	if err != nil {
		t.Fatalf("ResumeDraft error: %v", err)
	}
	if item.DraftStatus != league.DraftInProgress {
		t.Fatalf("expected in_progress, got %s", item.DraftStatus)
	}
	if _, err := f.draft.ResumeDraft(ctx, "l1"); !errors.Is(err, ErrPrecondition) {
		t.Fatalf("expected precondition error on resume from in_progress, got %v", err)
	}
}

func TestDraftService_AutoDraftAll(t *testing.T) {
	members := []string{"A", "B", "C", "D"}
	seed := baseSeed(members, "Yam", "Bo", "Cy", "Al", "Di", "Ed", "Flo", "Gus", "Hal")
	seed.Castaways[0].Status = season.CastawayEliminated
	seed.Seasons = append(seed.Seasons, season.Season{ID: "s2", DraftDeadline: fixtureNow.Add(time.Hour)})
	seed.Leagues = append(seed.Leagues, league.League{ID: "l2", SeasonID: "s2", RosterCap: 2, DraftStatus: league.DraftInProgress, DraftOrder: []string{"x"}})
	f := newEngineFixture(t, seed)
	ctx := context.Background()
	startDraft(t, f, members)

	if _, err := f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: "A", CastawayID: "Di"}); err != nil {
		t.Fatalf("manual pick: %v", err)
	}

	result, err := f.draft.AutoDraftAll(ctx)
	if err != nil {
		t.Fatalf("AutoDraftAll error: %v", err)
	}
	if result.LeagueCount != 1 || result.CompletedCount != 1 || result.Leagues[0].Picks != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}

	entries, err := f.rosters.ListByLeague(ctx, "l1")
	if err != nil {
		t.Fatalf("ListByLeague error: %v", err)
	}
	if len(entries) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(entries))
	}
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.CastawayID] {
			t.Fatalf("castaway %s drafted twice", e.CastawayID)
		}
		seen[e.CastawayID] = true
		if e.CastawayID == "Yam" {
			t.Fatalf("eliminated castaway was auto drafted")
		}
		if e.PickNumber > 1 && e.AcquiredVia != roster.AcquiredAutoDraft {
			t.Fatalf("expected auto_draft marking, got %+v", e)
		}
	}
	// pick 2 goes to B with the first available castaway by name
	if entries[1].MemberID != "B" || entries[1].CastawayID != "Al" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}

	item, _, _ := f.leagues.GetByID(ctx, "l1")
	if item.DraftStatus != league.DraftCompleted {
		t.Fatalf("expected completed, got %s", item.DraftStatus)
	}
	untouched, _, _ := f.leagues.GetByID(ctx, "l2")
	if untouched.DraftStatus != league.DraftInProgress {
		t.Fatalf("league before deadline must stay in progress")
	}
}

func TestDraftService_AutoDraftCompletesWhenPoolExhausted(t *testing.T) {
	members := []string{"A", "B"}
	f := newEngineFixture(t, baseSeed(members, "c1", "c2", "c3"))
	ctx := context.Background()
	startDraft(t, f, members)

	result, err := f.draft.AutoDraftAll(ctx)
	if err != nil {
		t.Fatalf("AutoDraftAll error: %v", err)
	}
	if result.Leagues[0].Picks != 3 {
		t.Fatalf("expected 3 picks, got %+v", result.Leagues[0])
	}
	item, _, _ := f.leagues.GetByID(ctx, "l1")
	if item.DraftStatus != league.DraftCompleted {
		t.Fatalf("expected completed, got %s", item.DraftStatus)
	}

	again, err := f.draft.AutoDraftAll(ctx)
	if err != nil {
		t.Fatalf("second AutoDraftAll error: %v", err)
	}
	if again.LeagueCount != 0 {
		t.Fatalf("expected no leagues on second run, got %+v", again)
	}
}

func addMemberMidDraft(t *testing.T, f *engineFixture, memberID string) {
	t.Helper()
	err := f.store.Load(memory.Seed{Members: []league.Member{{ID: memberID, LeagueID: "l1", UserID: "u-" + memberID}}})
	if err != nil {
		t.Fatalf("load late member: %v", err)
	}
}

func TestDraftService_LateMemberDoesNotExtendDraft(t *testing.T) {
	members := []string{"A", "B"}
	f := newEngineFixture(t, baseSeed(members, "c1", "c2", "c3", "c4", "c5", "c6"))
	ctx := context.Background()
	startDraft(t, f, members)
	addMemberMidDraft(t, f, "C")

	for i, picker := range []string{"A", "B", "B", "A"} {
		castawayID := []string{"c1", "c2", "c3", "c4"}[i]
		if _, err := f.draft.SubmitPick(ctx, DraftPickInput{LeagueID: "l1", MemberID: picker, CastawayID: castawayID}); err != nil {
			t.Fatalf("SubmitPick error at pick %d: %v", i+1, err)
		}
	}

	item, _, err := f.leagues.GetByID(ctx, "l1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if item.DraftStatus != league.DraftCompleted {
		t.Fatalf("expected draft completed after 4 picks, got %s", item.DraftStatus)
	}
	if got := heldCastaways(t, f, "C"); len(got) != 0 {
		t.Fatalf("late member must not draft, got %v", got)
	}
}

func TestDraftService_AutoDraftIgnoresLateMember(t *testing.T) {
	members := []string{"A", "B"}
	f := newEngineFixture(t, baseSeed(members, "c1", "c2", "c3", "c4", "c5", "c6"))
	ctx := context.Background()
	startDraft(t, f, members)
	addMemberMidDraft(t, f, "C")

	result, err := f.draft.AutoDraftAll(ctx)
	if err != nil {
		t.Fatalf("AutoDraftAll error: %v", err)
	}
	if result.CompletedCount != 1 || result.Leagues[0].Picks != 4 {
		t.Fatalf("unexpected result: %+v", result)
	}
	entries, err := f.rosters.ListByLeague(ctx, "l1")
	if err != nil {
		t.Fatalf("ListByLeague error: %v", err)
	}
	for _, e := range entries {
		if e.MemberID == "C" {
			t.Fatalf("late member drafted: %+v", e)
		}
	}
}

func TestDraftService_CurrentTurn_UsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := leaguemock.NewRepository(t)
	f := newEngineFixture(t, baseSeed([]string{"A"}, "c1"))
	service := NewDraftService(f.store, leagueRepo, f.seasons, f.rosters, nil, nil, nil)

	leagueRepo.
		On("GetByID", mock.Anything, "l9").
		Return(league.League{ID: "l9", DraftStatus: league.DraftInProgress, DraftOrder: []string{"x", "y", "z"}}, true, nil).
		Once()
	leagueRepo.
		On("GetByID", mock.Anything, "gone").
		Return(league.League{}, false, nil).
		Once()

	turn, err := service.CurrentTurn(ctx, "l9")
	if err != nil {
		t.Fatalf("CurrentTurn error: %v", err)
	}
	if turn.PickerMemberID != "x" || turn.PickNumber != 1 {
		t.Fatalf("unexpected turn: %+v", turn)
	}

	if _, err := service.CurrentTurn(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
