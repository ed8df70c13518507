package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func startScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := NewScheduler(SchedulerConfig{Workers: 2, QueueSize: 8})
	s.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestScheduleBeforeStart(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	err := s.Schedule(Job{Name: "x", Run: func(context.Context) error { return nil }})
	if !errors.Is(err, ErrSchedulerNotStarted) {
		t.Fatalf("expected ErrSchedulerNotStarted, got %v", err)
	}
}

func TestScheduleRunsJob(t *testing.T) {
	s := startScheduler(t)

	done := make(chan struct{})
	if err := s.Schedule(Job{Name: "email", Run: func(context.Context) error {
		close(done)
		return nil
	}}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestRetryPolicy(t *testing.T) {
	s := startScheduler(t)

	var attempts int32
	done := make(chan struct{})
	err := s.Schedule(Job{
		Name: "flaky",
		Run: func(context.Context) error {
			if atomic.AddInt32(&attempts, 1) < 3 {
				return errors.New("temporary")
			}
			close(done)
			return nil
		},
		RetryPolicy: RetryPolicy{MaxRetries: 3, Backoff: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("job did not succeed, attempts=%d", atomic.LoadInt32(&attempts))
	}
}

func TestScheduleUniqueRejectsDuplicate(t *testing.T) {
	s := startScheduler(t)

	release := make(chan struct{})
	started := make(chan struct{})
	job := Job{Name: "cleanup", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}
	if err := s.ScheduleUnique(job); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	<-started

	if err := s.ScheduleUnique(job); !errors.Is(err, ErrJobAlreadyScheduled) {
		t.Fatalf("expected ErrJobAlreadyScheduled, got %v", err)
	}
	close(release)
}

func TestEveryRejectsBadSpec(t *testing.T) {
	s := NewScheduler(SchedulerConfig{})
	err := s.Every("not a spec", Job{Name: "x", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected an error for an invalid cron spec")
	}
}

func TestRetryDelayGrows(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Backoff: time.Second}
	if p.delay(1) != time.Second || p.delay(3) != 3*time.Second {
		t.Fatalf("unexpected delays %v %v", p.delay(1), p.delay(3))
	}
}
