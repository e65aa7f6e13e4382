package reqray

import (
	"bytes"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestJSONCallTreeCollector(t *testing.T) {
	var buf bytes.Buffer
	processor := NewJSONCallTreeCollector(&buf)

	trees := collectCallTrees(compoundCall)
	processor.ProcessFinishedCall(trees[0])

	var got CallTreeNode
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Expected valid JSON document, got error: %v", err)
	}

	want := CallTreeNode{
		Name:      "compound_call",
		Calls:     1,
		WallNanos: 1113,
		OwnNanos:  1110,
		Children: []CallTreeNode{
			{
				Name:      "one_ns",
				Calls:     3,
				WallNanos: 3,
				OwnNanos:  3,
			},
		},
	}

	// File and line depend on where the test source lives.
	ignoreLocation := cmpopts.IgnoreFields(CallTreeNode{}, "File", "Line")
	if diff := cmp.Diff(want, got, ignoreLocation); diff != "" {
		t.Errorf("Call tree document mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONCallTreeCollectorOneDocumentPerTree(t *testing.T) {
	var buf bytes.Buffer
	processor := NewJSONCallTreeCollector(&buf)

	trees := collectCallTrees(oneNs)
	processor.ProcessFinishedCall(trees[0])
	processor.ProcessFinishedCall(trees[0])

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 newline-delimited documents, got %d", len(lines))
	}
	for _, line := range lines {
		var node CallTreeNode
		if err := json.Unmarshal([]byte(line), &node); err != nil {
			t.Errorf("Expected each line to be a valid document: %v", err)
		}
	}
}
