package reqray

import (
	"runtime"
)

// WorkerID is a stable identity for the worker executing a span hook.
// The same logical span may be entered concurrently from more than one
// worker; the collector keeps independent in-flight state per WorkerID.
type WorkerID uint64

// SpanAccess is the host's handle to one open span, as seen by the
// collector. The built-in Tracer implements it; any other span registry
// can drive the collector by implementing it too.
type SpanAccess interface {
	// Parent returns the parent span, or nil for a root span.
	Parent() SpanAccess

	// Root returns the root ancestor; a root span returns itself.
	Root() SpanAccess

	// Metadata returns the span's static callsite description.
	Metadata() *Metadata

	// WithExtensions runs fn with exclusive access to the span's
	// attached storage. The guard is held only for the duration of fn;
	// the collector never nests two such scopes.
	WithExtensions(fn func(*Extensions))
}

// Extensions is the per-span attached storage the collector works with.
// Hosts embed one zero-valued Extensions per span and expose it through
// SpanAccess.WithExtensions; its contents are collector-private.
type Extensions struct {
	timing *spanTimingInfo
	pool   *CallPathPool
}

// CurrentWorker returns a WorkerID for the calling goroutine.
//
// The runtime does not expose goroutine identity, so this parses the
// header line of the goroutine's stack trace. Hosts with a cheaper
// notion of worker identity can pass their own IDs instead.
func CurrentWorker() WorkerID {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// The header has the form "goroutine 123 [running]:".
	const prefix = len("goroutine ")
	var id uint64
	for _, c := range buf[prefix:n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return WorkerID(id)
}
