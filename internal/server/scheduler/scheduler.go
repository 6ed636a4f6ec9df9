// Package scheduler runs the periodic reconciliation jobs on cron
// expressions with a bounded worker pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/metrics"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
)

var (
	ErrUnknownJob     = errors.New("unknown job")
	ErrAlreadyRunning = errors.New("job already running")
	ErrDuplicateJob   = errors.New("job already registered")
	ErrStopped        = errors.New("scheduler stopped")
)

// JobFunc is one execution of a job.
type JobFunc func(ctx context.Context) error

type Options struct {
	// PoolSize bounds the number of jobs executing at the same time.
	PoolSize int
	// JobTimeout bounds every execution. Zero disables the timeout.
	JobTimeout time.Duration
	Parser     cron.ScheduleParser
	Location   *time.Location
}

type job struct {
	name    string
	fn      JobFunc
	running atomic.Bool
}

// Scheduler triggers registered jobs. A job never runs twice at the same
// time: a trigger that fires while the job is still running is skipped.
type Scheduler struct {
	cron    *cron.Cron
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  logging.Logger

	mu      sync.Mutex
	jobs    map[string]*job
	base    context.Context
	stopped bool
	wg      sync.WaitGroup

	// pending is cancelled by Stop. Triggers still waiting for a worker
	// give up on it; runs already executing do not see it.
	pending context.Context
	cancel  context.CancelFunc
}

func New(opts Options, logger logging.Logger) *Scheduler {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 1
	}
	if opts.Parser == nil {
		opts.Parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	logger = logger.With("module", "scheduler")
	cl := cronLogger{l: logger}
	pending, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(opts.Parser),
			cron.WithLocation(opts.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		sem:     semaphore.NewWeighted(int64(opts.PoolSize)),
		timeout: opts.JobTimeout,
		logger:  logger,
		jobs:    map[string]*job{},
		base:    context.Background(),
		pending: pending,
		cancel:  cancel,
	}
}

// Register adds a job triggered by the cron expression spec.
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	j := &job{name: name, fn: fn}
	if _, err := s.cron.AddFunc(spec, func() { s.trigger(j) }); err != nil {
		return fmt.Errorf("schedule %s with %q: %w", name, spec, err)
	}
	s.jobs[name] = j
	return nil
}

// Start begins triggering jobs. Runs inherit the values of ctx but are not
// cancelled with it.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.base = context.WithoutCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info(ctx, "scheduler started", "jobs", len(s.jobs))
}

// Stop stops triggering new runs, cancels the triggers still waiting for a
// worker and waits until ctx is done for the runs in flight. Runs still in
// flight after that are left to finish on their own.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.cancel()

	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info(ctx, "scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "scheduler stop timed out with jobs in flight")
		return ctx.Err()
	}
}

// RunNow runs the named job synchronously and returns its error.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	if _, ok := s.enter(); !ok {
		return fmt.Errorf("%w: %s", ErrStopped, name)
	}
	defer s.wg.Done()
	return s.exec(ctx, ctx, j)
}

// enter registers a run with the wait group unless Stop was called. The
// returned context is the one scheduled runs execute on.
func (s *Scheduler) enter() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, false
	}
	s.wg.Add(1)
	return s.base, true
}

func (s *Scheduler) trigger(j *job) {
	base, ok := s.enter()
	if !ok {
		return
	}
	defer s.wg.Done()

	// the outcome is already logged and counted by exec
	_ = s.exec(base, s.pending, j)
}

// exec waits for a worker on wait and runs the job on ctx.
func (s *Scheduler) exec(ctx, wait context.Context, j *job) error {
	if !j.running.CompareAndSwap(false, true) {
		metrics.JobRuns.WithLabelValues(j.name, metrics.StatusSkipped).Inc()
		s.logger.Warn(ctx, "job still running, trigger skipped", "job", j.name)
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, j.name)
	}
	defer j.running.Store(false)

	err := s.sem.Acquire(wait, 1)
	if err == nil && wait.Err() != nil {
		// Acquire may succeed on a context that is already done.
		s.sem.Release(1)
		err = wait.Err()
	}
	if err != nil {
		metrics.JobRuns.WithLabelValues(j.name, metrics.StatusSkipped).Inc()
		s.logger.Warn(ctx, "pending run cancelled", "job", j.name, "error", err)
		return fmt.Errorf("wait for worker: %w", err)
	}
	defer s.sem.Release(1)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info(ctx, "job started", "job", j.name)

	err = j.fn(ctx)

	elapsed := time.Since(start)
	metrics.JobDuration.WithLabelValues(j.name).Observe(elapsed.Seconds())

	status := metrics.StatusSucceeded
	switch {
	case err == nil:
		s.logger.Info(ctx, "job finished", "job", j.name, "duration", elapsed)
	case errors.Is(err, common.ErrPartialFailure):
		status = metrics.StatusPartial
		s.logger.Warn(ctx, "job finished with failures", "job", j.name, "duration", elapsed, "error", err)
	default:
		status = metrics.StatusFailed
		s.logger.Error(ctx, "job failed", "job", j.name, "duration", elapsed, "error", err)
	}
	metrics.JobRuns.WithLabelValues(j.name, status).Inc()

	return err
}

// cronLogger forwards cron's own log lines.
type cronLogger struct {
	l logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), "cron: "+msg, append(keysAndValues, "error", err)...)
}
