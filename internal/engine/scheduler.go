package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the polling loop for watch mode. The engine itself has
// no notion of a loop; the scheduler invokes its single-cycle entry
// point at a fixed interval. Cycles never overlap: cron runs each entry
// in its own goroutine but DelayIfStillRunning serializes invocations.
type Scheduler struct {
	cron   *cron.Cron
	engine *Engine
	log    *slog.Logger
}

// NewScheduler creates a Scheduler that runs one monitor cycle every
// pollInterval.
func NewScheduler(
	eng *Engine,
	pollInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	c := cron.New(cron.WithChain(
		cron.DelayIfStillRunning(cron.DiscardLogger),
	))

	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	if _, err := c.AddFunc("@every "+pollInterval.String(), s.runCycle); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins running scheduled cycles.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop gracefully stops the scheduler, waiting for a running cycle to finish.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// runCycle executes one cycle and contains its failure: a bad cycle is
// logged and the next scheduled cycle still runs.
func (s *Scheduler) runCycle() {
	ctx := context.Background()

	report, err := s.engine.RunCycle(ctx)
	if err != nil {
		if errors.Is(err, ErrNoProducts) {
			s.log.Warn("cycle skipped: no products fetched (connection issue?)")
			return
		}
		s.log.Error("cycle failed", "error", err)
		return
	}

	s.log.Info("cycle complete",
		"run_id", report.RunID,
		"fetched", report.Fetched,
		"events", report.Events,
		"messages_sent", report.MessagesSent,
		"messages_failed", report.MessagesFailed,
		"first_run", report.FirstRun,
		"duration", report.Duration,
	)
}
