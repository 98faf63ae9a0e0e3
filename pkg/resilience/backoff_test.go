package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleDelays(t *testing.T) {
	s := DefaultSchedule()

	expected := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second, // capped
		30 * time.Second,
	}
	for attempt, want := range expected {
		assert.Equal(t, want, s.Delay(attempt), "attempt %d", attempt)
	}
}

func TestScheduleCapBelowBase(t *testing.T) {
	s := Schedule{Base: 10 * time.Second, Cap: 5 * time.Second}
	assert.Equal(t, 5*time.Second, s.Delay(0))
}

func TestScheduleWaitCancelled(t *testing.T) {
	s := Schedule{Base: time.Minute, Cap: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Wait(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScheduleWaitCompletes(t *testing.T) {
	s := Schedule{Base: time.Millisecond, Cap: time.Millisecond}
	assert.NoError(t, s.Wait(context.Background(), 0))
}
