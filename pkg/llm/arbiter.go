package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abdhe/comparison-poster/pkg/metrics"
)

// health is the cached tri-state of the primary provider.
type health int

const (
	healthUnknown health = iota
	healthHealthy
	healthUnhealthy
)

// ErrPrimarySkipped stands in for the primary error when the arbiter never
// attempted the primary provider because it was inside the unhealthy
// cooldown window.
var ErrPrimarySkipped = errors.New("primary: skipped while unhealthy")

// Primary is the contract the arbiter needs from the primary provider.
type Primary interface {
	Generator
	HealthCheck(ctx context.Context) bool
}

// Stats is an immutable snapshot of the arbiter counters.
type Stats struct {
	TotalRequests   uint64
	PrimarySuccess  uint64
	PrimaryFailure  uint64
	FallbackSuccess uint64
	FallbackFailure uint64
	PrimaryHealthy  bool
}

// Arbiter is the unified generation entry point. It tracks cached primary
// health, decides per request whether to attempt the primary provider or go
// straight to the rotating fallback, and switches providers transparently
// on failure. Only *BothFailedError escapes to callers.
type Arbiter struct {
	primary  Primary
	fallback Generator
	cooldown time.Duration
	ceiling  time.Duration
	log      logrus.FieldLogger

	mu          sync.Mutex
	health      health
	lastFailure time.Time
	stats       Stats

	now func() time.Time
}

// ArbiterOption configures an Arbiter.
type ArbiterOption func(*Arbiter)

// WithCooldown sets how long the arbiter avoids the primary provider after
// a failure before re-probing.
func WithCooldown(d time.Duration) ArbiterOption {
	return func(a *Arbiter) { a.cooldown = d }
}

// WithRequestCeiling caps the total wall-clock time of one Generate call,
// bounding the worst case of timeouts, retries and backoff across both
// providers.
func WithRequestCeiling(d time.Duration) ArbiterOption {
	return func(a *Arbiter) { a.ceiling = d }
}

// withNow injects a clock for tests.
func withNow(now func() time.Time) ArbiterOption {
	return func(a *Arbiter) { a.now = now }
}

// NewArbiter creates an arbiter over a primary provider and a fallback
// generator. Primary health starts out unknown.
func NewArbiter(primary Primary, fallback Generator, log logrus.FieldLogger, opts ...ArbiterOption) *Arbiter {
	a := &Arbiter{
		primary:  primary,
		fallback: fallback,
		cooldown: 60 * time.Second,
		ceiling:  2 * time.Minute,
		log:      log,
		health:   healthUnknown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	metrics.PrimaryHealth.Set(-1)
	return a
}

// Generate runs one request through the two-provider state machine:
// TRY_PRIMARY → DONE | TRY_FALLBACK → DONE | FAILED.
func (a *Arbiter) Generate(ctx context.Context, req Request) (Result, error) {
	if a.ceiling > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.ceiling)
		defer cancel()
	}

	a.mu.Lock()
	a.stats.TotalRequests++
	a.mu.Unlock()

	primaryErr := ErrPrimarySkipped
	if a.shouldTryPrimary(ctx) {
		start := a.now()
		res, err := a.primary.Generate(ctx, req)
		metrics.GenerationLatency.WithLabelValues(primaryName).Observe(a.now().Sub(start).Seconds())

		if err == nil {
			a.setHealth(healthHealthy)
			a.bump(func(s *Stats) { s.PrimarySuccess++ })
			metrics.GenerationsTotal.WithLabelValues(primaryName, "success").Inc()
			return res, nil
		}

		primaryErr = err
		a.markFailure()
		a.bump(func(s *Stats) { s.PrimaryFailure++ })
		metrics.GenerationsTotal.WithLabelValues(primaryName, "failure").Inc()
		a.log.Warnf("primary failed, falling back: %v", err)
	} else {
		a.log.Debug("primary skipped, using fallback directly")
	}

	start := a.now()
	res, err := a.fallback.Generate(ctx, req)
	metrics.GenerationLatency.WithLabelValues(rotatingName).Observe(a.now().Sub(start).Seconds())

	if err == nil {
		a.bump(func(s *Stats) { s.FallbackSuccess++ })
		metrics.GenerationsTotal.WithLabelValues(rotatingName, "success").Inc()
		return res, nil
	}

	a.bump(func(s *Stats) { s.FallbackFailure++ })
	metrics.GenerationsTotal.WithLabelValues(rotatingName, "failure").Inc()
	return Result{}, &BothFailedError{Primary: primaryErr, Fallback: err}
}

// shouldTryPrimary applies the cached-health rule: a known-unhealthy primary
// is skipped without probing until the cooldown elapses; once it has, and
// whenever health is unknown, the liveness probe decides.
func (a *Arbiter) shouldTryPrimary(ctx context.Context) bool {
	a.mu.Lock()
	state := a.health
	last := a.lastFailure
	a.mu.Unlock()

	switch state {
	case healthHealthy:
		return true
	case healthUnhealthy:
		if a.now().Sub(last) < a.cooldown {
			return false
		}
	}

	if a.primary.HealthCheck(ctx) {
		a.setHealth(healthHealthy)
		return true
	}
	a.markFailure()
	return false
}

// Stats returns an immutable snapshot of the counters and cached health.
func (a *Arbiter) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	s.PrimaryHealthy = a.health == healthHealthy
	return s
}

// ResetStats zeroes the counters. Health state is untouched.
func (a *Arbiter) ResetStats() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = Stats{}
}

func (a *Arbiter) bump(f func(*Stats)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f(&a.stats)
}

func (a *Arbiter) setHealth(h health) {
	a.mu.Lock()
	a.health = h
	a.mu.Unlock()

	switch h {
	case healthHealthy:
		metrics.PrimaryHealth.Set(1)
	case healthUnhealthy:
		metrics.PrimaryHealth.Set(0)
	default:
		metrics.PrimaryHealth.Set(-1)
	}
}

// markFailure flips health to unhealthy and records the failure time for
// the cooldown window.
func (a *Arbiter) markFailure() {
	a.mu.Lock()
	a.health = healthUnhealthy
	a.lastFailure = a.now()
	a.mu.Unlock()
	metrics.PrimaryHealth.Set(0)
}
