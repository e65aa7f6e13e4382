package reqray

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Clock provides the timestamps used for span timing.
//
// Start samples a timestamp meant to open an interval, End one meant to
// close it, and Delta computes the duration between them. Delta never
// returns a negative duration, even if the underlying time source
// misbehaves.
type Clock interface {
	Start() time.Time
	End() time.Time
	Delta(start, end time.Time) time.Duration
}

// NewWallClock returns a Clock backed by the given clockz clock.
// Pass clockz.RealClock for production or a clockz.FakeClock for
// deterministic tests.
func NewWallClock(clock clockz.Clock) Clock {
	return wallClock{clock: clock}
}

type wallClock struct {
	clock clockz.Clock
}

func (c wallClock) Start() time.Time {
	return c.clock.Now()
}

func (c wallClock) End() time.Time {
	return c.clock.Now()
}

func (c wallClock) Delta(start, end time.Time) time.Duration {
	d := end.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
