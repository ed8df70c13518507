package apiclient

import (
	"context"
	"sync"
	"time"
)

const DefaultDebounce = 350 * time.Millisecond

// Debouncer runs only the last function triggered within the delay window.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, dropping any call still waiting.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop drops a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Suggester drives search-as-you-type. Every Update debounces the query;
// when a lookup starts, the previous in-flight lookup is cancelled so a
// slow, stale answer never overwrites a newer one.
type Suggester[T any] struct {
	debouncer *Debouncer
	fetch     func(ctx context.Context, query string) (T, error)
	deliver   func(query string, result T, err error)

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	ctx    context.Context
}

func NewSuggester[T any](
	ctx context.Context,
	delay time.Duration,
	fetch func(ctx context.Context, query string) (T, error),
	deliver func(query string, result T, err error),
) *Suggester[T] {
	return &Suggester[T]{
		debouncer: NewDebouncer(delay),
		fetch:     fetch,
		deliver:   deliver,
		ctx:       ctx,
	}
}

// Update records the latest input.
func (s *Suggester[T]) Update(query string) {
	s.debouncer.Trigger(func() { s.run(query) })
}

func (s *Suggester[T]) run(query string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	result, err := s.fetch(ctx, query)

	s.mu.Lock()
	current := seq == s.seq && ctx.Err() == nil
	if seq == s.seq {
		s.cancel = nil
	}
	s.mu.Unlock()
	cancel()

	if !current {
		return
	}
	s.deliver(query, result, err)
}

// Close stops pending and in-flight lookups.
func (s *Suggester[T]) Close() {
	s.debouncer.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
