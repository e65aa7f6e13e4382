package reqray

import (
	"context"
	"runtime"
	"sync"
)

// Tracer is the built-in span registry: it creates spans, maintains
// their parent/root links and guarded storage, and drives the
// CallTreeCollector's lifecycle hooks.
// Safe for concurrent use by multiple goroutines.
//
// Any other registry can replace it by implementing SpanAccess and
// calling the collector hooks directly.
type Tracer struct {
	collector *CallTreeCollector
	callsites sync.Map // CallsiteID -> *Metadata
}

// New creates a tracer that logs every finished call tree through a
// default LoggingCallTreeCollector.
func New() *Tracer {
	return NewWithCollector(NewCallTreeCollector(NewLoggingCallTreeCollector()))
}

// NewWithCollector creates a tracer driving the given collector.
func NewWithCollector(collector *CallTreeCollector) *Tracer {
	return &Tracer{collector: collector}
}

// StartSpan creates a new span and enters it on the calling goroutine.
// If the context contains an existing span, the new span will be its
// child; otherwise it becomes the root of a new call tree.
//
// The callsite of a span is the source location of the StartSpan call,
// so spans started from the same line fold into the same call path.
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, *ActiveSpan) {
	// Handle nil context by creating a new one.
	if ctx == nil {
		ctx = context.Background()
	}

	meta := t.callsiteFor(name, 1)

	var parent *spanState
	if existing := GetSpan(ctx); existing != nil {
		parent = existing.state
	}

	state := &spanState{meta: meta, parent: parent}
	if parent == nil {
		state.root = state
	} else {
		state.root = parent.root
	}

	t.collector.OnNewSpan(state)

	span := &ActiveSpan{
		state:   state,
		tracer:  t,
		entered: make(map[WorkerID]bool),
	}

	worker := CurrentWorker()
	span.entered[worker] = true
	t.collector.OnEnter(state, worker)

	bundle := &contextBundle{tracer: t, span: span}
	return context.WithValue(ctx, bundleKey, bundle), span
}

// callsiteFor returns the interned metadata for the instrumentation
// point skip+1 frames above the caller. Interning keeps one Metadata
// per callsite so repeated calls share it.
func (t *Tracer) callsiteFor(name string, skip int) *Metadata {
	var (
		file string
		line int
	)
	if _, callerFile, callerLine, ok := runtime.Caller(skip + 1); ok {
		file = callerFile
		line = callerLine
	}

	key := CallsiteID{Name: name, File: file, Line: line}
	if m, ok := t.callsites.Load(key); ok {
		return m.(*Metadata)
	}
	m, _ := t.callsites.LoadOrStore(key, &Metadata{Name: name, File: file, Line: line})
	return m.(*Metadata)
}
