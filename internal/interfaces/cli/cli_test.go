package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/castaway-league/internal/app"
	"github.com/riskibarqy/castaway-league/internal/config"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	"github.com/riskibarqy/castaway-league/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), config.Config{
		AppEnv:        config.EnvDev,
		StoreDriver:   config.StoreMemory,
		SeedDemo:      true,
		WaiverWorkers: 1,
	}, logging.NewNop())
	require.NoError(t, err)
	return a
}

func execute(a *app.App, args ...string) (string, error) {
	root := NewRootCommand(func(context.Context, *RootOptions) (*app.App, error) {
		return a, nil
	})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDraftCommands_OrderStartTurnPick(t *testing.T) {
	a := newTestApp(t)
	leagueID := memory.DemoLeagueID

	_, err := execute(a, "draft", "order", leagueID, "--member", "member-4,member-3,member-2,member-1")
	require.NoError(t, err)

	out, err := execute(a, "draft", "start", leagueID, "--compact")
	require.NoError(t, err)
	assert.Contains(t, out, string(league.DraftInProgress))

	out, err = execute(a, "draft", "turn", leagueID)
	require.NoError(t, err)
	var turn league.Turn
	require.NoError(t, sonic.UnmarshalString(out, &turn))
	assert.Equal(t, "member-4", turn.PickerMemberID)
	assert.Equal(t, 1, turn.Round)

	_, err = execute(a, "draft", "pick", leagueID, "member-1", "cast-01")
	assert.ErrorIs(t, err, usecase.ErrNotYourTurn)
	assert.Equal(t, ExitRejected, ExitCode(err))

	out, err = execute(a, "draft", "pick", leagueID, "member-4", "cast-01")
	require.NoError(t, err)
	assert.Contains(t, out, "cast-01")

	_, err = execute(a, "draft", "pick", leagueID, "member-3", "cast-01")
	assert.Equal(t, ExitConflict, ExitCode(err))
}

func TestWeeklyPick_RequiresCompletedDraft(t *testing.T) {
	a := newTestApp(t)

	_, err := execute(a, "weekly-pick", memory.DemoLeagueID, "member-1", "s47-e01", "cast-01")
	assert.Equal(t, ExitRejected, ExitCode(err))
}

func TestStandingsCommand(t *testing.T) {
	a := newTestApp(t)

	out, err := execute(a, "standings", memory.DemoLeagueID, "--recompute")
	require.NoError(t, err)
	var members []league.Member
	require.NoError(t, sonic.UnmarshalString(out, &members))
	assert.Len(t, members, 4)
}

func TestScoreAndWaiverCommands_RejectBadInput(t *testing.T) {
	a := newTestApp(t)

	_, err := execute(a, "score", "save", "s47-e01", "--entry", "cast-01:s47-idol")
	assert.Equal(t, ExitInvalidInput, ExitCode(err))

	_, err = execute(a, "score", "finalize", "no-such-episode")
	assert.Equal(t, ExitNotFound, ExitCode(err))

	_, err = execute(a, "waiver", "process", "--at", "tomorrow")
	assert.Equal(t, ExitInvalidInput, ExitCode(err))

	out, err := execute(a, "waiver", "process", "--compact")
	require.NoError(t, err)
	assert.Contains(t, out, `"unit_count":0`)
}

func TestScoreCommands_SaveAndFinalize(t *testing.T) {
	a := newTestApp(t)

	_, err := execute(a, "score", "start", "s47-e01")
	require.NoError(t, err)

	_, err = execute(a, "score", "save", "s47-e01", "--entry", "cast-02:s47-voted-out:1", "--entry", "cast-01:s47-idol:1")
	require.NoError(t, err)

	out, err := execute(a, "score", "finalize", "s47-e01", "--compact")
	require.NoError(t, err)
	assert.Contains(t, out, `"eliminated_castaway_ids":["cast-02"]`)

	_, err = execute(a, "score", "finalize", "s47-e01")
	assert.Equal(t, ExitRejected, ExitCode(err))
}

func TestRootCommand_FactoryErrorStopsRun(t *testing.T) {
	root := NewRootCommand(func(context.Context, *RootOptions) (*app.App, error) {
		return nil, errors.New("db unreachable")
	})
	root.SetOut(io.Discard)
	root.SetArgs([]string{"draft", "auto"})

	err := root.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "db unreachable")
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{usecase.ErrInvalidInput, ExitInvalidInput},
		{fmt.Errorf("league=l9: %w", usecase.ErrNotFound), ExitNotFound},
		{usecase.ErrCastawayTaken, ExitConflict},
		{usecase.ErrWindowClosed, ExitRejected},
		{usecase.ErrNotLeagueMember, ExitRejected},
		{errors.New("boom"), ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}
