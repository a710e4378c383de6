package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/walkeeper/pkg/telemetry/metrics"
	"mercator-hq/walkeeper/pkg/wal"
)

// ErrSchedulerRunning is returned by Start on a scheduler that is already running.
var ErrSchedulerRunning = errors.New("retention scheduler already running")

// Scheduler runs prune passes on a cron schedule and on demand. Every pass
// uses the directory's highest version as its boundary, so the segment
// currently being written is never a candidate.
type Scheduler struct {
	engine   *Engine
	schedule string
	cron     *cron.Cron
	trigger  chan struct{}
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	last atomic.Pointer[Result]
}

// NewScheduler creates a scheduler for engine. An empty schedule disables
// periodic passes; Trigger still works once the scheduler is started.
func NewScheduler(engine *Engine, schedule string) *Scheduler {
	return &Scheduler{
		engine:   engine,
		schedule: schedule,
		trigger:  make(chan struct{}, 1),
		logger:   slog.Default().With("component", "retention.scheduler"),
	}
}

// Start begins serving periodic and triggered passes until ctx is done or
// Stop is called.
//
// Common cron expressions:
//   - "*/15 * * * *" - Every 15 minutes
//   - "0 */6 * * *"  - Every 6 hours
//   - "0 3 * * *"    - Daily at 3 AM
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerRunning
	}

	s.cron = cron.New()
	if s.schedule != "" {
		if _, err := cron.ParseStandard(s.schedule); err != nil {
			return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
		}
		if _, err := s.cron.AddFunc(s.schedule, func() { s.Trigger() }); err != nil {
			return fmt.Errorf("failed to schedule pruning: %w", err)
		}
		s.cron.Start()
	} else {
		s.logger.Info("prune schedule not configured, serving on-demand passes only")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.running = true
	go s.loop(ctx, s.done)

	s.logger.Info("retention scheduler started",
		"schedule", s.schedule,
		"policy", s.engine.DescribeCurrentStrategy(),
	)
	return nil
}

// Trigger requests a pass. Requests made while one is already pending
// coalesce into it. Trigger reports whether a new request was queued.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.trigger:
			s.runPruning(ctx)
		}
	}
}

// runPruning executes one scheduled pass. Failures are logged; the next
// tick retries.
func (s *Scheduler) runPruning(ctx context.Context) {
	result, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}
	if result != nil && len(result.Deleted) > 0 {
		s.logger.Info("scheduled pruning completed",
			"pass_id", result.PassID,
			"deleted_count", len(result.Deleted),
		)
	}
}

// RunOnce runs a pass immediately with the highest version as boundary. It
// returns a nil Result when the pass was skipped because nothing could be
// pruned.
func (s *Scheduler) RunOnce(ctx context.Context) (*Result, error) {
	highest, err := s.engine.dir.HighestVersion()
	if err != nil {
		return nil, fmt.Errorf("highest version: %w", err)
	}
	if highest == wal.NoVersion || !s.engine.MightHaveLogsToPrune(highest) {
		s.engine.metrics.RecordPass(metrics.OutcomeSkipped, 0)
		s.logger.Debug("scheduled pruning skipped, nothing to prune", "boundary", highest)
		return nil, nil
	}

	result, err := s.engine.PruneLogs(ctx, highest)
	if result != nil {
		s.last.Store(result)
	}
	return result, err
}

// LastResult returns the result of the most recent pass the scheduler ran.
func (s *Scheduler) LastResult() *Result {
	return s.last.Load()
}

// Stop stops the scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.cancel()
	<-s.done
	s.running = false
	s.logger.Info("retention scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled pass time, or nil without a schedule.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return nil
	}

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
