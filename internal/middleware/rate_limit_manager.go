package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter buckets. Each bucket keeps its own limiter per client IP.
const (
	BucketGeneral = "general"
	BucketSearch  = "search"
	BucketUpload  = "upload"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitManager manages rate limiters with lifecycle control
type RateLimitManager struct {
	buckets map[string]map[string]*visitor
	mu      sync.Mutex
	idle    time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRateLimitManager creates a new rate limit manager with context-based lifecycle
func NewRateLimitManager(ctx context.Context) *RateLimitManager {
	managerCtx, cancel := context.WithCancel(ctx)

	m := &RateLimitManager{
		buckets: make(map[string]map[string]*visitor),
		idle:    10 * time.Minute,
		ctx:     managerCtx,
		cancel:  cancel,
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// WindowLimit converts "requests per window" into a token bucket rate.
func WindowLimit(requestsPerWindow, windowSeconds int) rate.Limit {
	if requestsPerWindow <= 0 {
		return rate.Inf
	}
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	return rate.Limit(float64(requestsPerWindow) / float64(windowSeconds))
}

// Limiter retrieves or creates the limiter of ip in bucket. A nil result
// means the bucket is not limited.
func (m *RateLimitManager) Limiter(bucket, ip string, limit rate.Limit, burst int) *rate.Limiter {
	if m == nil || limit == rate.Inf || limit <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	visitors, ok := m.buckets[bucket]
	if !ok {
		visitors = make(map[string]*visitor)
		m.buckets[bucket] = visitors
	}

	v, exists := visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(limit, burst)}
		visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// cleanupLoop periodically removes inactive rate limiters
func (m *RateLimitManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.cleanup(time.Now())
		}
	}
}

func (m *RateLimitManager) cleanup(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, visitors := range m.buckets {
		for ip, v := range visitors {
			if now.Sub(v.lastSeen) > m.idle {
				delete(visitors, ip)
			}
		}
	}
}

func (m *RateLimitManager) size(bucket string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets[bucket])
}

// Shutdown stops the cleanup goroutine and waits for it to finish
func (m *RateLimitManager) Shutdown() error {
	m.cancel()
	m.wg.Wait()
	return nil
}
