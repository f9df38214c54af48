package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/riskibarqy/castaway-league/internal/config"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/notify"
	repocache "github.com/riskibarqy/castaway-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:        config.EnvDev,
		ServiceName:   "castaway-league",
		StoreDriver:   config.StoreMemory,
		SeedDemo:      true,
		WaiverWorkers: 2,
	}
}

func TestNew_MemoryWiresDemoLeagueAndCatalog(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	item, found, err := a.Repos.Leagues.GetByID(ctx, memory.DemoLeagueID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, league.DraftPending, item.DraftStatus)

	rules, err := a.Repos.Scoring.ListRules(ctx, memory.DemoSeasonID)
	require.NoError(t, err)
	codes := map[string]bool{}
	for _, r := range rules {
		codes[r.Code] = true
	}
	assert.True(t, codes["MEDEVAC"], "global catalog rule")
	assert.True(t, codes["FOUND_IDOL"], "season rule")

	_, isLog := a.Publisher.(*notify.LogPublisher)
	assert.True(t, isLog)

	turn, err := a.Services.Draft.CurrentTurn(ctx, memory.DemoLeagueID)
	assert.Error(t, err, "draft has not started")
	assert.Zero(t, turn.Round)
}

func TestNew_RosterCapOverride(t *testing.T) {
	cfg := memoryConfig()
	cfg.RosterCap = 3

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	item, _, err := a.Repos.Leagues.GetByID(context.Background(), memory.DemoLeagueID)
	require.NoError(t, err)
	assert.Equal(t, 3, item.RosterCap)
}

func TestNew_CatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - id: g-fire\n    code: FIRE_MADE\n    points: 4\n"), 0o600))

	cfg := memoryConfig()
	cfg.SeedDemo = false
	cfg.ScoringCatalogPath = path

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)

	rules, err := a.Repos.Scoring.ListRules(context.Background(), "any-season")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "FIRE_MADE", rules[0].Code)

	cfg.ScoringCatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = New(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "open scoring catalog")
}

func TestNew_CacheDecoratesReadHeavyRepositories(t *testing.T) {
	cfg := memoryConfig()
	cfg.CacheEnabled = true
	cfg.CacheTTL = time.Minute

	a, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, seasonsCached := a.Repos.Seasons.(*repocache.SeasonRepository)
	_, rulesCached := a.Repos.Scoring.(*repocache.ScoringRepository)
	assert.True(t, seasonsCached)
	assert.True(t, rulesCached)

	item, found, err := a.Repos.Seasons.GetSeason(context.Background(), memory.DemoSeasonID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, memory.DemoSeasonID, item.ID)
}
