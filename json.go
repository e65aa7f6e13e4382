package reqray

import (
	"io"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// JSONCallTreeCollector writes each finished call tree as one JSON
// document to w, for forwarding to systems that aggregate further.
// Safe for concurrent use; documents are written whole, never
// interleaved.
type JSONCallTreeCollector struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONCallTreeCollector creates a JSON processor writing to w.
func NewJSONCallTreeCollector(w io.Writer) *JSONCallTreeCollector {
	return &JSONCallTreeCollector{w: w}
}

// CallTreeNode is the JSON shape of one call path and its children.
type CallTreeNode struct {
	Name      string         `json:"name"`
	File      string         `json:"file,omitempty"`
	Line      int            `json:"line,omitempty"`
	Calls     int            `json:"calls"`
	WallNanos int64          `json:"wall_ns"`
	OwnNanos  int64          `json:"own_ns"`
	Children  []CallTreeNode `json:"children,omitempty"`
}

// ProcessFinishedCall encodes the finished tree, root first, followed
// by a newline.
func (c *JSONCallTreeCollector) ProcessFinishedCall(pool *CallPathPool) {
	doc := buildCallTreeNode(pool, 0)

	c.mu.Lock()
	defer c.mu.Unlock()
	// An unwritable sink loses the tree but must not break the host's
	// request path.
	_ = json.NewEncoder(c.w).Encode(doc)
}

func buildCallTreeNode(pool *CallPathPool, id CallPathID) CallTreeNode {
	timing := pool.At(id)
	meta := timing.Metadata()

	node := CallTreeNode{
		Name:      meta.Name,
		File:      meta.File,
		Line:      meta.Line,
		Calls:     timing.CallCount(),
		WallNanos: timing.SumWithChildren().Nanoseconds(),
		OwnNanos:  timing.SumWithoutChildren().Nanoseconds(),
	}

	children := timing.Children()
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	for _, childID := range children {
		node.Children = append(node.Children, buildCallTreeNode(pool, childID))
	}
	return node
}
