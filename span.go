package reqray

import (
	"context"
	"sync"
)

// bundleKeyType is a private type for context keys to avoid collisions.
type bundleKeyType string

const (
	bundleKey bundleKeyType = "reqray"
)

// contextBundle holds both tracer and span to reduce context allocations.
type contextBundle struct {
	tracer *Tracer
	span   *ActiveSpan
}

// spanState is the registry record of one span: its callsite metadata,
// its place in the tree, and the guarded storage the collector attaches
// timing state to.
type spanState struct {
	meta   *Metadata
	parent *spanState
	root   *spanState
	mu     sync.Mutex
	ext    Extensions
}

func (s *spanState) Parent() SpanAccess {
	if s.parent == nil {
		return nil
	}
	return s.parent
}

func (s *spanState) Root() SpanAccess {
	return s.root
}

func (s *spanState) Metadata() *Metadata {
	return s.meta
}

func (s *spanState) WithExtensions(fn func(*Extensions)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.ext)
}

// ActiveSpan is the handle to an open span.
// Safe for concurrent use by multiple goroutines.
//
// A span is entered on the goroutine that started it. Work that moves
// to another goroutine Resumes the span there and Suspends it before
// returning; the aggregation accounts each worker's busy stretches
// independently.
type ActiveSpan struct {
	state    *spanState
	tracer   *Tracer
	mu       sync.Mutex
	entered  map[WorkerID]bool
	finished bool
}

// Name returns the span's operation name.
func (a *ActiveSpan) Name() string {
	return a.state.meta.Name
}

// Resume marks the span as executing on the calling goroutine.
// No-op if the span is already entered here or already finished.
func (a *ActiveSpan) Resume() {
	worker := CurrentWorker()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finished || a.entered[worker] {
		return
	}
	a.entered[worker] = true
	a.tracer.collector.OnEnter(a.state, worker)
}

// Suspend marks the span as no longer executing on the calling
// goroutine, e.g. before handing work back to another goroutine.
// No-op if the span is not entered here.
func (a *ActiveSpan) Suspend() {
	worker := CurrentWorker()

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.entered[worker] {
		return
	}
	delete(a.entered, worker)
	a.tracer.collector.OnExit(a.state, worker)
}

// Finish exits the span on the calling goroutine if needed and closes
// it, folding its timings into the call tree. Closing the root span
// hands the finished tree to the tracer's processor.
// Safe to call multiple times - subsequent calls are no-ops.
func (a *ActiveSpan) Finish() {
	worker := CurrentWorker()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.finished {
		return
	}
	if a.entered[worker] {
		delete(a.entered, worker)
		a.tracer.collector.OnExit(a.state, worker)
	}
	a.finished = true
	a.tracer.collector.OnClose(a.state, worker)
}

// Context creates a new context with this span embedded.
// The returned context can be used to start child spans.
func (a *ActiveSpan) Context(parent context.Context) context.Context {
	bundle := &contextBundle{tracer: a.tracer, span: a}
	return context.WithValue(parent, bundleKey, bundle)
}

// GetSpan extracts the current span from a context.
// Returns nil if no span is present.
func GetSpan(ctx context.Context) *ActiveSpan {
	if ctx == nil {
		return nil
	}

	if bundle, ok := ctx.Value(bundleKey).(*contextBundle); ok {
		return bundle.span
	}

	return nil
}
