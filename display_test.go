package reqray

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/zoobzio/clockz"
)

func renderCallTree(t *testing.T, pool *CallPathPool, leftMargin int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteCallTree(&buf, pool, leftMargin); err != nil {
		t.Fatalf("WriteCallTree failed: %v", err)
	}
	return buf.String()
}

func TestDisplayOneNs(t *testing.T) {
	trees := collectCallTrees(oneNs)

	got := renderCallTree(t, trees[0], 0)
	want := "" +
		"    # calls │    ∑ wall ms │     ∑ own ms │ span tree\n" +
		"────────────┼──────────────┼──────────────┼───────────────────────\n" +
		"      0 001 ┊        0.000 ┊        0.000 ┊ ─ one_ns\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rendered tree mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplayCompoundCall(t *testing.T) {
	trees := collectCallTrees(compoundCall)

	got := renderCallTree(t, trees[0], 0)
	want := "" +
		"    # calls │    ∑ wall ms │     ∑ own ms │ span tree\n" +
		"────────────┼──────────────┼──────────────┼───────────────────────\n" +
		"      0 001 ┊        0.001 ┊        0.001 ┊ ┬ compound_call\n" +
		"      0 003 ┊        0.000 ┊        0.000 ┊ ╰─ one_ns\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rendered tree mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplayBranchRails(t *testing.T) {
	trees := collectCallTrees(func(ctx context.Context, tracer *Tracer, clock *clockz.FakeClock) {
		ctx, root := tracer.StartSpan(ctx, "root")
		aCtx, a := tracer.StartSpan(ctx, "a")
		_, x := tracer.StartSpan(aCtx, "x")
		x.Finish()
		a.Finish()
		_, b := tracer.StartSpan(ctx, "b")
		b.Finish()
		root.Finish()
	})

	got := renderCallTree(t, trees[0], 0)
	want := "" +
		"    # calls │    ∑ wall ms │     ∑ own ms │ span tree\n" +
		"────────────┼──────────────┼──────────────┼───────────────────────\n" +
		"      0 001 ┊        0.000 ┊        0.000 ┊ ┬ root\n" +
		"      0 001 ┊        0.000 ┊        0.000 ┊ ├┬ a\n" +
		"      0 001 ┊        0.000 ┊        0.000 ┊ ┊╰─ x\n" +
		"      0 001 ┊        0.000 ┊        0.000 ┊ ╰─ b\n"

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rendered tree mismatch (-want +got):\n%s", diff)
	}
}

func TestDisplayLeftMargin(t *testing.T) {
	trees := collectCallTrees(oneNs)

	got := renderCallTree(t, trees[0], 4)
	for _, line := range strings.SplitAfter(strings.TrimRight(got, "\n"), "\n") {
		if !strings.HasPrefix(line, "    ") {
			t.Errorf("Expected every line indented by 4 spaces, got %q", line)
		}
	}
}

func TestLoggingCallTreeCollector(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	processor := NewLoggingCallTreeCollector(WithLogger(logger), WithLeftMargin(0))

	trees := collectCallTrees(oneNs)
	processor.ProcessFinishedCall(trees[0])

	out := buf.String()
	assert.Contains(t, out, "Call summary of one_ns@")
	assert.Contains(t, out, "one_ns")
	assert.Contains(t, out, `"level":"info"`)
}
