package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig indicates the scheduler configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSchedulerNotRunning indicates an operation on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
)

// FullSyncRunStatus represents the outcome of a full sync run
type FullSyncRunStatus string

const (
	FullSyncRunStatusRunning FullSyncRunStatus = "RUNNING"
	FullSyncRunStatusSuccess FullSyncRunStatus = "SUCCESS"
	FullSyncRunStatusFailed  FullSyncRunStatus = "FAILED"
)

// FullSyncRun records a single scheduled catalog reconciliation run
type FullSyncRun struct {
	ID          uuid.UUID
	Status      FullSyncRunStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

func newFullSyncRun() *FullSyncRun {
	return &FullSyncRun{
		ID:        uuid.New(),
		Status:    FullSyncRunStatusRunning,
		StartedAt: time.Now(),
	}
}

func (r *FullSyncRun) complete(err error) {
	now := time.Now()
	r.CompletedAt = &now
	if err != nil {
		r.Status = FullSyncRunStatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = FullSyncRunStatusSuccess
}

// FullSyncExecutor runs one full catalog reconciliation pass
type FullSyncExecutor interface {
	RunFullSync(ctx context.Context) error
}

// FullSyncSchedulerConfig holds configuration for the full sync scheduler
type FullSyncSchedulerConfig struct {
	// Interval is the time between reconciliation runs
	Interval time.Duration
	// RunTimeout is the maximum time a single run can take
	RunTimeout time.Duration
}

// Validate validates the configuration
func (c *FullSyncSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.RunTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// FullSyncScheduler periodically triggers full catalog reconciliation.
// Runs never overlap: the loop executes them sequentially, so a tick that
// fires mid-run waits for the current run to finish.
type FullSyncScheduler struct {
	config   FullSyncSchedulerConfig
	executor FullSyncExecutor
	logger   *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Run history for monitoring (in-memory, limited size)
	historyMu  sync.RWMutex
	history    []*FullSyncRun
	maxHistory int
}

// NewFullSyncScheduler creates a new full sync scheduler
func NewFullSyncScheduler(config FullSyncSchedulerConfig, executor FullSyncExecutor, logger *zap.Logger) (*FullSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &FullSyncScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		history:    make([]*FullSyncRun, 0, 50),
		maxHistory: 50,
	}, nil
}

// Start starts the scheduler loop
func (s *FullSyncScheduler) Start(ctx context.Context) error {
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
	go s.loop(ctx)

	s.logger.Info("Full sync scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("run_timeout", s.config.RunTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for an in-flight run
func (s *FullSyncScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("Full sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Full sync scheduler stop timed out")
		return ctx.Err()
	}
}

// TriggerNow runs a reconciliation pass immediately, outside the ticker.
// Returns ErrSchedulerNotRunning if the scheduler is stopped.
func (s *FullSyncScheduler) TriggerNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	return s.runOnce(ctx)
}

// History returns a copy of recent run records, newest first
func (s *FullSyncScheduler) History() []*FullSyncRun {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	out := make([]*FullSyncRun, len(s.history))
	for i, r := range s.history {
		c := *r
		out[len(s.history)-1-i] = &c
	}
	return out
}

func (s *FullSyncScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Scheduled full sync failed", zap.Error(err))
			}
		}
	}
}

func (s *FullSyncScheduler) runOnce(ctx context.Context) error {
	run := newFullSyncRun()
	s.recordRun(run)

	s.logger.Info("Full sync run started", zap.String("run_id", run.ID.String()))

	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	err := s.executor.RunFullSync(runCtx)
	run.complete(err)

	if err != nil {
		s.logger.Warn("Full sync run finished with error",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("Full sync run completed",
		zap.String("run_id", run.ID.String()),
		zap.Duration("elapsed", run.CompletedAt.Sub(run.StartedAt)),
	)
	return nil
}

func (s *FullSyncScheduler) recordRun(run *FullSyncRun) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append(s.history, run)
	if len(s.history) > s.maxHistory {
		s.history = s.history[1:]
	}
}
