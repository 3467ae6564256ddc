// Package jobs runs the service's periodic background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"coding-trivia-service/pkg/logger"
	"github.com/robfig/cron/v3"
)

const defaultRunTimeout = 2 * time.Minute

// Reconciler rebuilds leaderboard entries from submission rows.
type Reconciler interface {
	ReconcileLeaderboard(ctx context.Context) (int, error)
}

// ReconcileScheduler runs leaderboard reconciliation on a cron schedule.
// Overlapping runs are skipped.
type ReconcileScheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	log        logger.Logger
	timeout    time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewReconcileScheduler validates schedule (standard five-field or @every/@hourly style
// descriptors) and registers the job. Nothing runs until Start.
func NewReconcileScheduler(r Reconciler, schedule string, log logger.Logger) (*ReconcileScheduler, error) {
	if schedule == "" {
		return nil, fmt.Errorf("reconcile schedule cannot be empty")
	}
	if log == nil {
		log = logger.Named("jobs")
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &ReconcileScheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		reconciler: r,
		log:        log,
		timeout:    defaultRunTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
	if _, err := s.cron.AddFunc(schedule, s.runScheduled); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *ReconcileScheduler) Start() {
	s.cron.Start()
	s.log.Info(s.ctx, "reconcile scheduler started")
}

// Stop cancels an in-flight run and waits for it to return.
func (s *ReconcileScheduler) Stop() {
	stopped := s.cron.Stop()
	s.cancel()
	<-stopped.Done()
	s.log.Info(context.Background(), "reconcile scheduler stopped")
}

// RunOnce performs a single reconciliation pass with the scheduler's timeout.
func (s *ReconcileScheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.reconciler.ReconcileLeaderboard(ctx)
}

func (s *ReconcileScheduler) runScheduled() {
	start := time.Now()
	n, err := s.RunOnce(s.ctx)
	if err != nil {
		s.log.Error(s.ctx, "leaderboard reconcile failed",
			logger.Int("rebuilt", n),
			logger.Error(err),
		)
		return
	}
	s.log.Info(s.ctx, "leaderboard reconciled",
		logger.Int("rebuilt", n),
		logger.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}
