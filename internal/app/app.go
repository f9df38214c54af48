package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/riskibarqy/castaway-league/internal/config"
	"github.com/riskibarqy/castaway-league/internal/domain/league"
	"github.com/riskibarqy/castaway-league/internal/domain/pick"
	"github.com/riskibarqy/castaway-league/internal/domain/roster"
	"github.com/riskibarqy/castaway-league/internal/domain/scoring"
	"github.com/riskibarqy/castaway-league/internal/domain/season"
	"github.com/riskibarqy/castaway-league/internal/domain/store"
	"github.com/riskibarqy/castaway-league/internal/domain/waiver"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/notify"
	repocache "github.com/riskibarqy/castaway-league/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/castaway-league/internal/infrastructure/repository/postgres"
	idgen "github.com/riskibarqy/castaway-league/internal/platform/id"
	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	"github.com/riskibarqy/castaway-league/internal/platform/resilience"
	"github.com/riskibarqy/castaway-league/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

type Repositories struct {
	Tx      store.Transactor
	Leagues league.Repository
	Seasons season.Repository
	Rosters roster.Repository
	Picks   pick.Repository
	Scoring scoring.Repository
	Waivers waiver.Repository
}

type Services struct {
	Draft      *usecase.DraftService
	Waiver     *usecase.WaiverService
	Scoring    *usecase.ScoringService
	Standings  *usecase.StandingsService
	WeeklyPick *usecase.WeeklyPickService
}

// App is the wired engine shared by the worker and the CLI.
type App struct {
	Config    config.Config
	Logger    *logging.Logger
	Repos     Repositories
	Services  Services
	Publisher usecase.EventPublisher

	closers []func() error
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	var err error
	switch cfg.StoreDriver {
	case config.StorePostgres:
		err = a.openPostgres(ctx)
	default:
		err = a.openMemory()
	}
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.CacheEnabled {
		a.Repos.Seasons = repocache.NewSeasonRepository(a.Repos.Seasons, cfg.CacheTTL)
		a.Repos.Scoring = repocache.NewScoringRepository(a.Repos.Scoring, cfg.CacheTTL)
	}

	if err := a.loadScoringCatalog(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	publisher, err := a.buildPublisher(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Publisher = publisher

	ids := idgen.NewUUIDGenerator()
	r := a.Repos
	a.Services.Draft = usecase.NewDraftService(r.Tx, r.Leagues, r.Seasons, r.Rosters, ids, publisher, logger.Named("draft"))
	a.Services.Standings = usecase.NewStandingsService(r.Tx, r.Leagues, r.Picks)
	a.Services.Scoring = usecase.NewScoringService(r.Tx, r.Leagues, r.Seasons, r.Picks, r.Scoring, a.Services.Standings, ids, publisher, logger.Named("scoring"))
	a.Services.Waiver = usecase.NewWaiverService(r.Tx, r.Leagues, r.Seasons, r.Rosters, r.Waivers, ids, publisher, logger.Named("waiver"))
	a.Services.Waiver.SetMaxWorkers(cfg.WaiverWorkers)
	a.Services.WeeklyPick = usecase.NewWeeklyPickService(r.Tx, r.Leagues, r.Seasons, r.Rosters, r.Picks, ids)

	logger.Info("league engine ready", "store", cfg.StoreDriver, "seed_demo", cfg.SeedDemo)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openMemory() error {
	st := memory.NewStore()
	if a.Config.SeedDemo {
		if err := st.Load(a.demoSeed()); err != nil {
			return fmt.Errorf("load demo seed: %w", err)
		}
	}
	a.Repos = Repositories{
		Tx:      st,
		Leagues: memory.NewLeagueRepository(st),
		Seasons: memory.NewSeasonRepository(st),
		Rosters: memory.NewRosterRepository(st),
		Picks:   memory.NewPickRepository(st),
		Scoring: memory.NewScoringRepository(st),
		Waivers: memory.NewWaiverRepository(st),
	}
	return nil
}

func (a *App) openPostgres(ctx context.Context) error {
	db, err := openDB(ctx, a.Config)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)

	if a.Config.SeedDemo {
		if err := postgres.BootstrapSeed(ctx, db, a.demoSeed()); err != nil {
			return fmt.Errorf("bootstrap demo seed: %w", err)
		}
	}
	a.Repos = Repositories{
		Tx:      postgres.NewTransactor(db),
		Leagues: postgres.NewLeagueRepository(db),
		Seasons: postgres.NewSeasonRepository(db),
		Rosters: postgres.NewRosterRepository(db),
		Picks:   postgres.NewPickRepository(db),
		Scoring: postgres.NewScoringRepository(db),
		Waivers: postgres.NewWaiverRepository(db),
	}
	return nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.ServiceName)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (a *App) demoSeed() memory.Seed {
	seed := memory.DemoSeed(time.Now())
	if a.Config.RosterCap > 0 {
		for i := range seed.Leagues {
			seed.Leagues[i].RosterCap = a.Config.RosterCap
		}
	}
	return seed
}

// loadScoringCatalog upserts the global rules from SCORING_CATALOG_PATH or
// the embedded default.
func (a *App) loadScoringCatalog(ctx context.Context) error {
	var (
		rules  []scoring.Rule
		err    error
		source = "embedded"
	)
	if path := a.Config.ScoringCatalogPath; path != "" {
		source = path
		f, openErr := os.Open(path)
		if openErr != nil {
			return fmt.Errorf("open scoring catalog: %w", openErr)
		}
		rules, err = scoring.LoadCatalog(f)
		_ = f.Close()
	} else {
		rules, err = scoring.DefaultCatalog()
	}
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return nil
	}

	err = a.Repos.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return a.Repos.Scoring.UpsertRules(ctx, rules)
	})
	if err != nil {
		return fmt.Errorf("upsert scoring catalog: %w", err)
	}
	a.Logger.Info("scoring catalog loaded", "source", source, "rules", len(rules))
	return nil
}

func (a *App) buildPublisher(ctx context.Context) (usecase.EventPublisher, error) {
	cfg := a.Config
	var sinks []usecase.EventPublisher

	if cfg.RedisEnabled {
		redisPublisher, err := notify.NewRedisPublisher(ctx, notify.RedisConfig{
			URL:           cfg.RedisURL,
			ChannelPrefix: cfg.RedisChannel,
			StreamMaxLen:  cfg.RedisStreamMaxLen,
		}, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisPublisher.Close)
		sinks = append(sinks, redisPublisher)
	}

	if cfg.QStashEnabled {
		qstash, err := notify.NewQStashPublisher(notify.QStashConfig{
			BaseURL:       cfg.QStashBaseURL,
			Token:         cfg.QStashToken,
			TargetBaseURL: cfg.QStashTargetBaseURL,
			TargetPath:    cfg.QStashTargetPath,
			Retries:       cfg.QStashRetries,
			ForwardToken:  cfg.InternalJobToken,
			CircuitBreaker: resilience.Config{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenProbes:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, a.Logger)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, qstash)
	}

	if len(sinks) == 0 {
		return notify.NewLogPublisher(a.Logger), nil
	}
	return notify.NewMultiPublisher(sinks...), nil
}
