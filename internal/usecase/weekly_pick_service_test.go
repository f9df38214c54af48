package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklySeed() memory.Seed {
	seed := completedSeed(
		map[string][]string{"A": {"X", "Q"}, "B": {"Y", "R"}},
		[]string{"A", "B"},
		"Q", "R", "X", "Y",
	)
	seed.Episodes = []season.Episode{
		{ID: "e1", SeasonID: "s1", Number: 1, PickLockAt: fixtureNow.Add(-time.Hour), IsScored: true},
		{ID: "e2", SeasonID: "s1", Number: 2, PickLockAt: fixtureNow.Add(time.Hour)},
		{ID: "e3", SeasonID: "s1", Number: 3, PickLockAt: fixtureNow.Add(-time.Minute)},
	}
	return seed
}

func TestWeeklyPickService_SubmitPick(t *testing.T) {
	f := newEngineFixture(t, weeklySeed())
	ctx := context.Background()

	first, err := f.weekly.SubmitPick(ctx, WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e2", CastawayID: "X"})
	require.NoError(t, err)
	assert.Equal(t, fixtureNow, first.SubmittedAt)

	second, err := f.weekly.SubmitPick(ctx, WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e2", CastawayID: "Q"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	stored, ok, err := f.picks.Get(ctx, "l1", "A", "e2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Q", stored.CastawayID)
	assert.Nil(t, stored.PointsEarned)
}

func TestWeeklyPickService_SubmitPickRejections(t *testing.T) {
	f := newEngineFixture(t, weeklySeed())
	ctx := context.Background()

	tests := []struct {
		name    string
		input   WeeklyPickInput
		wantErr error
	}{
		{
			name:    "castaway held by another member",
			input:   WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e2", CastawayID: "Y"},
			wantErr: ErrNotOnRoster,
		},
		{
			name:    "pick lock passed",
			input:   WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e3", CastawayID: "X"},
			wantErr: ErrWindowClosed,
		},
		{
			name:    "episode already scored",
			input:   WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e1", CastawayID: "X"},
			wantErr: ErrEpisodeScored,
		},
		{
			name:    "outsider",
			input:   WeeklyPickInput{LeagueID: "l1", MemberID: "C", EpisodeID: "e2", CastawayID: "X"},
			wantErr: ErrNotLeagueMember,
		},
		{
			name:    "missing castaway id",
			input:   WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e2"},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown league",
			input:   WeeklyPickInput{LeagueID: "l9", MemberID: "A", EpisodeID: "e2", CastawayID: "X"},
			wantErr: ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.weekly.SubmitPick(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.weekly.SubmitPick(ctx, WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e3", CastawayID: "X"})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestWeeklyPickService_RequiresCompletedDraft(t *testing.T) {
	seed := weeklySeed()
	seed.Leagues[0].DraftStatus = league.DraftInProgress
	f := newEngineFixture(t, seed)

	_, err := f.weekly.SubmitPick(context.Background(), WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e2", CastawayID: "X"})
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestWeeklyPickService_PickWithPointsIsFrozen(t *testing.T) {
	f := newEngineFixture(t, weeklySeed())
	ctx := context.Background()

	first, err := f.weekly.SubmitPick(ctx, WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e2", CastawayID: "X"})
	require.NoError(t, err)

	// Points landed on e2 before the episode flag is visible to this member.
	updated, err := f.picks.ApplyEpisodePoints(ctx, "e2", map[string]int{"X": 7})
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	_, err = f.weekly.SubmitPick(ctx, WeeklyPickInput{LeagueID: "l1", MemberID: "A", EpisodeID: "e2", CastawayID: "Q"})
	assert.ErrorIs(t, err, ErrEpisodeScored)

	stored, ok, err := f.picks.Get(ctx, "l1", "A", "e2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "X", stored.CastawayID)
	require.NotNil(t, stored.PointsEarned)
	assert.Equal(t, 7, *stored.PointsEarned)
}
