package resilience

import (
	"context"
	"fmt"
	"time"
)

// Schedule is a deterministic exponential backoff schedule:
// Base, Base*2, Base*4, ... capped at Cap. With the defaults this yields
// 2s, 4s, 8s, 16s, 30s, 30s, ...
type Schedule struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultSchedule returns the standard schedule used for transient failures.
func DefaultSchedule() Schedule {
	return Schedule{Base: 2 * time.Second, Cap: 30 * time.Second}
}

// Delay returns the delay before retry number attempt (0-based).
func (s Schedule) Delay(attempt int) time.Duration {
	d := s.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= s.Cap {
			return s.Cap
		}
	}
	if d > s.Cap {
		return s.Cap
	}
	return d
}

// Wait blocks for the delay of the given attempt, or returns early if the
// context is cancelled.
func (s Schedule) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(s.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff: context cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
