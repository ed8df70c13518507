package background

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"

	"coursehub-backend/pkg/logger"
)

type SchedulerConfig struct {
	Workers   int
	QueueSize int
}

// RetryPolicy retries a failed job MaxRetries times. The wait grows
// linearly with the attempt number.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if p.Backoff <= 0 {
		return 0
	}
	return p.Backoff * time.Duration(attempt)
}

type Job struct {
	Name        string
	Run         func(ctx context.Context) error
	Delay       time.Duration
	Timeout     time.Duration
	RetryPolicy RetryPolicy
}

var (
	ErrSchedulerNotStarted = errors.New("scheduler not started")
	ErrJobAlreadyScheduled = errors.New("job already scheduled")
	ErrSchedulerStopping   = errors.New("scheduler is shutting down")
)

// Scheduler runs one-off jobs on a small worker pool and periodic jobs
// on a cron clock. Periodic runs go through the same pool so they share
// retries and metrics.
type Scheduler struct {
	cfg SchedulerConfig

	mu       sync.Mutex
	ctx      context.Context
	stop     context.CancelFunc
	running  bool
	inflight map[string]struct{}

	queue   chan task
	clock   *cron.Cron
	workers sync.WaitGroup
	pending sync.WaitGroup
}

type task struct {
	job     Job
	attempt int
	unique  bool
}

var (
	metricsOnce sync.Once
	runsTotal   *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	queueDepth  prometheus.Gauge
)

func registerMetrics() {
	metricsOnce.Do(func() {
		runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coursehub",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job executions by outcome",
		}, []string{"job", "status"})

		runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "coursehub",
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Duration of background job executions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"})

		lastSuccess = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "coursehub",
			Subsystem: "jobs",
			Name:      "last_success_timestamp",
			Help:      "Unix time of the last successful run",
		}, []string{"job"})

		queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "coursehub",
			Subsystem: "jobs",
			Name:      "queue_depth",
			Help:      "Jobs waiting for a worker",
		})
	})
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	registerMetrics()

	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	return &Scheduler{
		cfg:      cfg,
		queue:    make(chan task, cfg.QueueSize),
		clock:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		inflight: make(map[string]struct{}),
	}
}

// Start launches the workers and the cron clock. Calling it twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	s.ctx, s.stop = context.WithCancel(ctx)
	s.running = true
	for i := 0; i < s.cfg.Workers; i++ {
		s.workers.Add(1)
		go s.work()
	}
	s.clock.Start()
}

// Every registers a job that is queued on the given cron spec. Overlapping
// runs of the same job are skipped.
func (s *Scheduler) Every(spec string, job Job) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("periodic job needs a name and a runner")
	}
	_, err := s.clock.AddFunc(spec, func() {
		err := s.ScheduleUnique(job)
		switch {
		case err == nil:
		case errors.Is(err, ErrJobAlreadyScheduled):
			logger.Debug("Skipping periodic job, previous run still active", map[string]interface{}{"job": job.Name})
		default:
			logger.Warn("Failed to queue periodic job", map[string]interface{}{"job": job.Name, "error": err.Error()})
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, job.Name, err)
	}
	logger.Info("Periodic job registered", map[string]interface{}{"job": job.Name, "schedule": spec})
	return nil
}

func (s *Scheduler) Schedule(job Job) error {
	return s.submit(job, false)
}

// ScheduleUnique queues job unless a job with the same name is already
// queued or running.
func (s *Scheduler) ScheduleUnique(job Job) error {
	return s.submit(job, true)
}

func (s *Scheduler) submit(job Job, unique bool) error {
	if job.Name == "" {
		return errors.New("job name is required")
	}
	if job.Run == nil {
		return errors.New("job runner is required")
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotStarted
	}
	if unique {
		if _, busy := s.inflight[job.Name]; busy {
			s.mu.Unlock()
			return ErrJobAlreadyScheduled
		}
		s.inflight[job.Name] = struct{}{}
	}
	s.mu.Unlock()

	if !s.push(task{job: job, attempt: 1, unique: unique}) {
		s.release(job.Name, unique)
		return ErrSchedulerStopping
	}
	return nil
}

func (s *Scheduler) push(t task) bool {
	select {
	case <-s.ctx.Done():
		return false
	case s.queue <- t:
		queueDepth.Inc()
		return true
	}
}

func (s *Scheduler) release(name string, unique bool) {
	if !unique {
		return
	}
	s.mu.Lock()
	delete(s.inflight, name)
	s.mu.Unlock()
}

func (s *Scheduler) work() {
	defer s.workers.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case t := <-s.queue:
			queueDepth.Dec()
			s.handle(t)
		}
	}
}

func (s *Scheduler) handle(t task) {
	s.pending.Add(1)
	defer s.pending.Done()

	if t.job.Delay > 0 && !s.wait(t.job.Delay) {
		s.done(t, context.Canceled)
		return
	}

	err := s.run(t)
	if err != nil && s.retryable(t, err) {
		next := t
		next.attempt++
		next.job.Delay = t.job.RetryPolicy.delay(t.attempt)
		logger.Warn("Retrying background job", map[string]interface{}{
			"job":     t.job.Name,
			"attempt": next.attempt,
			"delay":   next.job.Delay.String(),
		})
		// The worker must not block on its own queue.
		go func() {
			if !s.push(next) {
				s.done(next, err)
			}
		}()
		return
	}
	s.done(t, err)
}

func (s *Scheduler) wait(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Scheduler) run(t task) (err error) {
	started := time.Now()
	status := "success"

	ctx := s.ctx
	if t.job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.job.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			status = "failure"
		}
		runDuration.WithLabelValues(t.job.Name).Observe(time.Since(started).Seconds())
		runsTotal.WithLabelValues(t.job.Name, status).Inc()
		if status == "success" {
			lastSuccess.WithLabelValues(t.job.Name).SetToCurrentTime()
		}
	}()

	if ctx.Err() != nil {
		status = "canceled"
		return ctx.Err()
	}

	if err = t.job.Run(ctx); err != nil {
		status = "failure"
		if errors.Is(err, context.Canceled) {
			status = "canceled"
		}
	}
	return err
}

func (s *Scheduler) retryable(t task, err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return t.attempt <= t.job.RetryPolicy.MaxRetries
}

func (s *Scheduler) done(t task, err error) {
	s.release(t.job.Name, t.unique)

	fields := map[string]interface{}{"job": t.job.Name, "attempt": t.attempt}
	switch {
	case err == nil:
		logger.Debug("Background job completed", fields)
	case errors.Is(err, context.Canceled):
		logger.Warn("Background job canceled", fields)
	default:
		logger.Error(err, "Background job failed", fields)
	}
}

// Shutdown stops the cron clock and the workers, then waits for running
// jobs until ctx expires.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stop := s.stop
	s.mu.Unlock()

	clockDone := s.clock.Stop()
	stop()

	finished := make(chan struct{})
	go func() {
		<-clockDone.Done()
		s.workers.Wait()
		s.pending.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Inflight reports how many unique jobs are queued or running.
func (s *Scheduler) Inflight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
