package reqray

import (
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestWallClockDelta(t *testing.T) {
	fake := clockz.NewFakeClock()
	clock := NewWallClock(fake)

	start := clock.Start()
	fake.Advance(42 * time.Nanosecond)
	end := clock.End()

	if got := clock.Delta(start, end); got != 42*time.Nanosecond {
		t.Errorf("Expected delta 42ns, got %v", got)
	}
}

func TestWallClockDeltaNeverNegative(t *testing.T) {
	fake := clockz.NewFakeClock()
	clock := NewWallClock(fake)

	earlier := clock.Start()
	fake.Advance(time.Millisecond)
	later := clock.End()

	if got := clock.Delta(later, earlier); got != 0 {
		t.Errorf("Expected reversed delta clamped to 0, got %v", got)
	}
}
