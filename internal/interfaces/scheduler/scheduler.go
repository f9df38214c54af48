package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/castaway-league/internal/platform/logging"
	"github.com/riskibarqy/castaway-league/internal/usecase"
	"github.com/robfig/cron/v3"
)

const (
	JobAutoDraft     = "auto-draft"
	JobProcessWaiver = "process-waivers"
)

type AutoDrafter interface {
	AutoDraftAll(ctx context.Context) (usecase.AutoDraftResult, error)
}

type WaiverProcessor interface {
	ProcessWaivers(ctx context.Context, now time.Time) (usecase.WaiverRunResult, error)
}

type Config struct {
	// Cron specs use the optional seconds field. Empty disables the job.
	AutoDraftSpec string
	WaiverSpec    string
	JobTimeout    time.Duration
}

// Scheduler drives the periodic league jobs. Runs of the same job never
// overlap; a tick that lands on a running job is skipped.
type Scheduler struct {
	cron    *cron.Cron
	jobs    map[string]func(ctx context.Context) error
	timeout time.Duration
	logger  *logging.Logger
	now     func() time.Time
	baseCtx context.Context
}

func New(ctx context.Context, cfg Config, drafts AutoDrafter, waivers WaiverProcessor, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("scheduler")
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	cronLogger := cronLogAdapter{logger: logger}
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger))),
		jobs:    map[string]func(ctx context.Context) error{},
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
		baseCtx: ctx,
	}

	if drafts != nil {
		s.jobs[JobAutoDraft] = func(ctx context.Context) error {
			result, err := drafts.AutoDraftAll(ctx)
			if err != nil {
				return err
			}
			s.logger.InfoContext(ctx, "auto-draft run finished",
				"leagues", result.LeagueCount,
				"completed", result.CompletedCount,
				"failed", result.FailedCount,
			)
			return nil
		}
	}
	if waivers != nil {
		s.jobs[JobProcessWaiver] = func(ctx context.Context) error {
			result, err := waivers.ProcessWaivers(ctx, s.now())
			if err != nil {
				return err
			}
			s.logger.InfoContext(ctx, "waiver run finished",
				"units", result.UnitCount,
				"settled", result.SettledCount,
				"skipped", result.SkippedCount,
				"failed", result.FailedCount,
			)
			return nil
		}
	}

	specs := map[string]string{JobAutoDraft: cfg.AutoDraftSpec, JobProcessWaiver: cfg.WaiverSpec}
	for name, spec := range specs {
		if spec == "" {
			continue
		}
		if _, ok := s.jobs[name]; !ok {
			return nil, fmt.Errorf("job %s scheduled without a handler", name)
		}
		jobName := name
		if _, err := s.cron.AddFunc(spec, func() { _ = s.Run(s.baseCtx, jobName) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", name, spec, err)
		}
		logger.Info("job scheduled", "job", name, "spec", spec)
	}

	return s, nil
}

// Run executes one job immediately under the job timeout.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	if err := job(runCtx); err != nil {
		s.logger.ErrorContext(runCtx, "job failed", "job", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	s.logger.DebugContext(runCtx, "job done", "job", name, "duration", s.now().Sub(started))
	return nil
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "entries", s.Entries())
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

type cronLogAdapter struct {
	logger *logging.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error(msg, append(keysAndValues, "error", err)...)
}
