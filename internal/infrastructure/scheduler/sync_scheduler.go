package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appsync "github.com/finsight/backend/internal/application/sync"
	syncdomain "github.com/finsight/backend/internal/domain/sync"
)

// SyncRunner kicks off one batch sync across every active tenant
type SyncRunner interface {
	SyncAll(ctx context.Context, trigger syncdomain.TriggerKind) (*appsync.BatchSummary, error)
}

var _ SyncRunner = (*appsync.Orchestrator)(nil)

// SyncSchedulerConfig holds configuration for the interval sync scheduler
type SyncSchedulerConfig struct {
	// Enabled turns the background scheduler on; the HTTP trigger endpoint
	// works either way
	Enabled bool
	// Interval is the time between scheduled runs
	Interval time.Duration
}

// DefaultSyncSchedulerConfig returns default configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Enabled:  false,
		Interval: time.Hour,
	}
}

// Validate validates the configuration
func (c *SyncSchedulerConfig) Validate() error {
	if c.Enabled && c.Interval < time.Minute {
		return ErrInvalidConfig
	}
	return nil
}

// SyncScheduler triggers batch syncs on a fixed interval. Runs never overlap:
// a tick that arrives while a run is still in flight is skipped.
type SyncScheduler struct {
	config SyncSchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	inFlight sync.Mutex

	lastRunMu sync.RWMutex
	lastRun   time.Time
	lastBatch *appsync.BatchSummary
}

// NewSyncScheduler creates an interval sync scheduler
func NewSyncScheduler(config SyncSchedulerConfig, runner SyncRunner, logger *zap.Logger) (*SyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SyncScheduler{
		config: config,
		runner: runner,
		logger: logger.Named("sync_scheduler"),
	}, nil
}

// Start starts the scheduler loop. A no-op when the scheduler is disabled.
func (s *SyncScheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.logger.Info("sync scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("sync scheduler started",
		zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish
func (s *SyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("sync scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce executes a single scheduled batch, skipping the tick if a previous
// run is still in flight
func (s *SyncScheduler) runOnce(ctx context.Context) {
	if !s.inFlight.TryLock() {
		s.logger.Warn("skipping scheduled sync, previous run still in flight")
		return
	}
	defer s.inFlight.Unlock()

	started := time.Now()
	summary, err := s.runner.SyncAll(ctx, syncdomain.TriggerScheduled)
	if err != nil {
		s.logger.Error("scheduled sync failed", zap.Error(err))
		return
	}

	s.lastRunMu.Lock()
	s.lastRun = started
	s.lastBatch = summary
	s.lastRunMu.Unlock()

	s.logger.Info("scheduled sync finished",
		zap.Int("tenants", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", time.Since(started)))
}

// LastRun returns the start time and summary of the most recent completed
// scheduled run, nil when none has completed yet
func (s *SyncScheduler) LastRun() (time.Time, *appsync.BatchSummary) {
	s.lastRunMu.RLock()
	defer s.lastRunMu.RUnlock()
	return s.lastRun, s.lastBatch
}
