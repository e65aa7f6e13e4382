package reqray

import (
	"time"
)

// CallPathID indexes a CallPathTiming inside a CallPathPool.
// IDs are only meaningful within the pool that issued them.
type CallPathID int

// noParent marks the root entry, which has no parent call path.
const noParent CallPathID = -1

// CallsiteID identifies one instrumentation point. Spans created at the
// same source location share a CallsiteID, which is what lets their
// timings fold into the same call path.
type CallsiteID struct {
	Name string
	File string
	Line int
}

// Metadata is the static description of an instrumentation point.
// It is shared by every span created at that callsite.
type Metadata struct {
	Name string
	File string
	Line int
}

// Callsite returns the identity key derived from this metadata.
func (m *Metadata) Callsite() CallsiteID {
	return CallsiteID{Name: m.Name, File: m.File, Line: m.Line}
}

// CallPathPool owns all CallPathTiming records of one call tree,
// indexed by CallPathID. Index 0 is always the root's own call path.
//
// A pool is mutated only while its root span is open. Once handed to a
// FinishedCallTreeProcessor it is immutable.
type CallPathPool struct {
	pool []CallPathTiming
}

// Root returns the timing record of the root call path.
func (p *CallPathPool) Root() *CallPathTiming {
	return &p.pool[0]
}

// At returns the timing record for the given ID.
// IDs never come from external input, so a bad index is a logic error.
func (p *CallPathPool) At(id CallPathID) *CallPathTiming {
	return &p.pool[id]
}

// Len returns the number of distinct call paths in the pool.
func (p *CallPathPool) Len() int {
	return len(p.pool)
}

// CallPathTiming aggregates all spans with the same call path: their
// callsite and the callsites of all their ancestors are identical.
type CallPathTiming struct {
	parent          CallPathID
	depth           int
	callCount       int
	meta            *Metadata
	children        map[CallsiteID]CallPathID
	sumWithChildren time.Duration
	sumOwn          time.Duration
}

// Metadata returns the static callsite description shared by every span
// on this call path, e.g. the name of the instrumented function.
func (t *CallPathTiming) Metadata() *Metadata {
	return t.meta
}

// CallCount returns how many spans with this call path were created.
// Typically the number of times a function was called.
func (t *CallPathTiming) CallCount() int {
	return t.callCount
}

// SumWithChildren returns the total duration spans on this call path
// were entered. Time spent in child spans is included.
func (t *CallPathTiming) SumWithChildren() time.Duration {
	return t.sumWithChildren
}

// SumWithoutChildren returns the total duration spans on this call path
// were entered, excluding the stretches during which a child span was
// itself entered.
func (t *CallPathTiming) SumWithoutChildren() time.Duration {
	return t.sumOwn
}

// Depth returns the distance from the root call path; the root is 0.
func (t *CallPathTiming) Depth() int {
	return t.depth
}

// Parent returns the parent call path ID.
// ok is false only for the root entry.
func (t *CallPathTiming) Parent() (id CallPathID, ok bool) {
	if t.parent == noParent {
		return 0, false
	}
	return t.parent, true
}

// Children returns the IDs of all direct child call paths.
// The order is unspecified; callers sort by their own criterion.
func (t *CallPathTiming) Children() []CallPathID {
	ids := make([]CallPathID, 0, len(t.children))
	for _, id := range t.children {
		ids = append(ids, id)
	}
	return ids
}

func newCallPathTiming(parent CallPathID, depth int, meta *Metadata) CallPathTiming {
	return CallPathTiming{
		parent:   parent,
		depth:    depth,
		meta:     meta,
		children: make(map[CallsiteID]CallPathID),
	}
}
