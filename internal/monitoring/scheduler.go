package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Sweeper evicts expired rate limit windows.
type Sweeper interface {
	Sweep() int
}

// EventPruner deletes audit events older than a cutoff.
type EventPruner interface {
	PruneEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// SchedulerConfig sets the housekeeping cadence.
type SchedulerConfig struct {
	SweepSpec      string
	PruneSpec      string
	EventRetention time.Duration
}

// DefaultSchedulerConfig sweeps every minute and prunes daily.
var DefaultSchedulerConfig = SchedulerConfig{
	SweepSpec:      "@every 1m",
	PruneSpec:      "@daily",
	EventRetention: 30 * 24 * time.Hour,
}

// Scheduler runs periodic housekeeping jobs.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	events  EventPruner
	cfg     SchedulerConfig
	now     func() time.Time
}

// NewScheduler creates a new scheduler. sweeper may be nil when counters
// live in Redis, where keys expire on their own.
func NewScheduler(sweeper Sweeper, events EventPruner, cfg SchedulerConfig) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{}))),
		sweeper: sweeper,
		events:  events,
		cfg:     cfg,
		now:     time.Now,
	}

	if sweeper != nil {
		if _, err := s.cron.AddFunc(cfg.SweepSpec, s.sweepRateWindows); err != nil {
			return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.SweepSpec, err)
		}
	}
	if events != nil && cfg.EventRetention > 0 {
		if _, err := s.cron.AddFunc(cfg.PruneSpec, s.pruneEvents); err != nil {
			return nil, fmt.Errorf("invalid prune schedule %q: %w", cfg.PruneSpec, err)
		}
	}
	return s, nil
}

// Run starts the scheduler in its own goroutine.
func (s *Scheduler) Run() {
	log.Info().Int("jobs", len(s.cron.Entries())).Msg("Starting housekeeping scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped housekeeping scheduler")
}

func (s *Scheduler) sweepRateWindows() {
	if n := s.sweeper.Sweep(); n > 0 {
		log.Debug().Int("evicted", n).Msg("Swept expired rate windows")
	}
}

func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.cfg.EventRetention)
	n, err := s.events.PruneEvents(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prune events")
		return
	}
	log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("Pruned old events")
}

// cronLogger routes cron's own diagnostics through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
