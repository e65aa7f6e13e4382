package reqray

import (
	"time"

	"github.com/zoobzio/clockz"
)

// FinishedCallTreeProcessor consumes the aggregated call tree of one
// completed root span.
//
// Expected use cases:
//   - Log the call tree.
//   - Generate metrics from the call tree.
//   - Do anomaly detection on the call tree.
//   - Send the call tree elsewhere for further aggregation.
//
// ProcessFinishedCall is invoked synchronously on the goroutine closing
// the root span, exactly once per completed root. Ownership of the pool
// transfers to the processor; the collector keeps no reference.
type FinishedCallTreeProcessor interface {
	ProcessFinishedCall(pool *CallPathPool)
}

// CallTreeCollector aggregates span timings by call path and hands each
// finished tree to a FinishedCallTreeProcessor once its root span
// closes.
//
// Safe for concurrent use: hooks may be called from multiple goroutines
// at once, including concurrent enter/exit of the same span from
// different workers. All span state lives in host-guarded Extensions;
// the collector acquires at most one span's guard at a time.
type CallTreeCollector struct {
	clock        Clock
	maxCallDepth int
	processor    FinishedCallTreeProcessor
}

// CollectorOption configures a CallTreeCollector.
type CollectorOption func(*CallTreeCollector)

// WithClock sets the clock used for span timing.
// The default is a wall clock backed by clockz.RealClock; pass a fake
// clock for deterministic tests.
func WithClock(clock Clock) CollectorOption {
	return func(c *CallTreeCollector) {
		c.clock = clock
	}
}

// WithMaxCallDepth caps the recorded call-path depth; at least 2 is
// enforced. Spans below the cap are not tracked, so their execution is
// recorded as if it were inlined into the nearest tracked ancestor.
func WithMaxCallDepth(depth int) CollectorOption {
	return func(c *CallTreeCollector) {
		c.maxCallDepth = depth
	}
}

// DefaultMaxCallDepth is the call-path depth cap unless overridden with
// WithMaxCallDepth.
const DefaultMaxCallDepth = 10

// NewCallTreeCollector creates a collector handing finished call trees
// to processor.
func NewCallTreeCollector(processor FinishedCallTreeProcessor, opts ...CollectorOption) *CallTreeCollector {
	c := &CallTreeCollector{
		clock:        NewWallClock(clockz.RealClock),
		maxCallDepth: DefaultMaxCallDepth,
		processor:    processor,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxCallDepth < 2 {
		c.maxCallDepth = 2
	}
	return c
}

// spanTimingInfo is the ephemeral timing state of one open span. Its
// sums are folded into the referenced CallPathTiming when the span
// closes.
type spanTimingInfo struct {
	callPath        CallPathID
	sumWithChildren time.Duration
	sumOwn          time.Duration
	// In-flight enters keyed by worker. While unusual, the same span
	// can be entered from several workers at once; each worker's
	// enter/exit pair must account independently.
	perWorker map[WorkerID]workerTimes
}

type workerTimes struct {
	lastEnter    time.Time
	lastEnterOwn time.Time
}

func newSpanTimingInfo(callPath CallPathID) *spanTimingInfo {
	return &spanTimingInfo{
		callPath:  callPath,
		perWorker: make(map[WorkerID]workerTimes),
	}
}

// Implementation idea:
//
// Each open span carries a spanTimingInfo. In parallel, the pool at the
// root span builds the aggregated hierarchy of CallPathTimings, one per
// call path. Whenever a span closes, its accumulated sums fold into the
// corresponding CallPathTiming.
//
// Entering and leaving a span therefore only touches span-local state,
// no tree lookups. This matters in async code where a span may be
// entered and left many times.

// OnNewSpan assigns the new span its call path and attaches fresh
// timing state. A root span additionally gets the pool that will own
// the call tree. Spans at or below the depth cap get neither and stay
// invisible to the aggregation.
func (c *CallTreeCollector) OnNewSpan(span SpanAccess) {
	parent := span.Parent()
	if parent == nil {
		span.WithExtensions(func(ext *Extensions) {
			ext.pool = &CallPathPool{
				pool: []CallPathTiming{newCallPathTiming(noParent, 0, span.Metadata())},
			}
			ext.timing = newSpanTimingInfo(0)
		})
		return
	}

	parentPath := noParent
	parent.WithExtensions(func(ext *Extensions) {
		if ext.timing != nil {
			parentPath = ext.timing.callPath
		}
	})
	if parentPath == noParent {
		// Beyond the maximum call depth.
		return
	}

	callPath := noParent
	span.Root().WithExtensions(func(ext *Extensions) {
		pool := ext.pool
		if pool == nil {
			panic("reqray: OnNewSpan: root span has no call path pool")
		}
		parentTiming := pool.At(parentPath)
		newDepth := parentTiming.depth + 1
		if newDepth >= c.maxCallDepth {
			return
		}
		callsite := span.Metadata().Callsite()
		if id, ok := parentTiming.children[callsite]; ok {
			callPath = id
			return
		}
		callPath = CallPathID(len(pool.pool))
		parentTiming.children[callsite] = callPath
		pool.pool = append(pool.pool, newCallPathTiming(parentPath, newDepth, span.Metadata()))
	})
	if callPath == noParent {
		return
	}

	span.WithExtensions(func(ext *Extensions) {
		ext.timing = newSpanTimingInfo(callPath)
	})
}

// OnEnter records that worker started executing the span. The parent's
// own time stops accruing on this worker from the moment control passed
// to the child.
func (c *CallTreeCollector) OnEnter(span SpanAccess, worker WorkerID) {
	leaveParent := c.clock.End()

	entered := false
	span.WithExtensions(func(ext *Extensions) {
		if ext.timing == nil {
			return
		}
		start := c.clock.Start()
		ext.timing.perWorker[worker] = workerTimes{
			lastEnter:    start,
			lastEnterOwn: start,
		}
		entered = true
	})
	if !entered {
		// Depth-capped span: ignore completely, including the parent.
		return
	}

	parent := span.Parent()
	if parent == nil {
		return
	}
	parent.WithExtensions(func(ext *Extensions) {
		if ext.timing == nil {
			return
		}
		// The parent accrued own time on this worker from its last
		// own-time mark until control passed to the child. A parent
		// entered on a different worker has no mark here and nothing
		// to account.
		if times, ok := ext.timing.perWorker[worker]; ok {
			ext.timing.sumOwn += c.clock.Delta(times.lastEnterOwn, leaveParent)
		}
	})
}

// OnExit records that worker stopped executing the span, accumulating
// the wall and own durations of this enter/exit cycle. The parent's own
// time resumes accruing on this worker from now.
func (c *CallTreeCollector) OnExit(span SpanAccess, worker WorkerID) {
	end := c.clock.End()

	exited := false
	span.WithExtensions(func(ext *Extensions) {
		if ext.timing == nil {
			return
		}
		times, ok := ext.timing.perWorker[worker]
		if !ok {
			panic("reqray: OnExit: span exited on a worker that never entered it")
		}
		ext.timing.sumWithChildren += c.clock.Delta(times.lastEnter, end)
		ext.timing.sumOwn += c.clock.Delta(times.lastEnterOwn, end)
		// The same worker will likely enter again, but keeping stale
		// entries would grow the map without bound under worker churn.
		delete(ext.timing.perWorker, worker)
		exited = true
	})
	if !exited {
		return
	}

	parent := span.Parent()
	if parent == nil {
		return
	}
	enterOwn := c.clock.Start()
	parent.WithExtensions(func(ext *Extensions) {
		if ext.timing == nil {
			panic("reqray: OnExit: parent span has no timing state")
		}
		if times, ok := ext.timing.perWorker[worker]; ok {
			times.lastEnterOwn = enterOwn
			ext.timing.perWorker[worker] = times
		}
	})
}

// OnClose folds the span's accumulated sums into its call path's
// aggregate. Closing a root span additionally detaches the finished
// pool and hands it to the processor.
func (c *CallTreeCollector) OnClose(span SpanAccess, _ WorkerID) {
	var timing *spanTimingInfo
	span.WithExtensions(func(ext *Extensions) {
		timing = ext.timing
		ext.timing = nil
	})
	if timing == nil {
		return
	}

	isRoot := span.Parent() == nil
	var finished *CallPathPool
	span.Root().WithExtensions(func(ext *Extensions) {
		pool := ext.pool
		if pool == nil {
			panic("reqray: OnClose: root span has no call path pool")
		}
		callPathTiming := pool.At(timing.callPath)
		callPathTiming.callCount++
		callPathTiming.sumWithChildren += timing.sumWithChildren
		callPathTiming.sumOwn += timing.sumOwn

		if isRoot {
			finished = pool
			ext.pool = nil
		}
	})

	if finished != nil {
		c.processor.ProcessFinishedCall(finished)
	}
}
