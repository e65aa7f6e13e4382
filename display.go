package reqray

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggingCallTreeCollector logs each finished call tree as a
// human-friendly table with one row per call path:
//
//	    # calls │    ∑ wall ms │     ∑ own ms │ span tree
//	────────────┼──────────────┼──────────────┼───────────────────────
//	      0 001 ┊        0.001 ┊        0.001 ┊ ┬ compound_call
//	      0 003 ┊        0.000 ┊        0.000 ┊ ╰─ one_ns
type LoggingCallTreeCollector struct {
	logger     zerolog.Logger
	leftMargin int
}

// LoggingOption configures a LoggingCallTreeCollector.
type LoggingOption func(*LoggingCallTreeCollector)

// WithLeftMargin indents every rendered line by margin spaces so the
// table lines up with surrounding log output.
func WithLeftMargin(margin int) LoggingOption {
	return func(l *LoggingCallTreeCollector) {
		l.leftMargin = margin
	}
}

// WithLogger sets the zerolog logger used to emit call summaries.
// The default is the global logger.
func WithLogger(logger zerolog.Logger) LoggingOption {
	return func(l *LoggingCallTreeCollector) {
		l.logger = logger
	}
}

// NewLoggingCallTreeCollector creates a logging processor.
func NewLoggingCallTreeCollector(opts ...LoggingOption) *LoggingCallTreeCollector {
	l := &LoggingCallTreeCollector{
		logger:     log.Logger,
		leftMargin: 20,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ProcessFinishedCall logs the call summary of one finished tree.
func (l *LoggingCallTreeCollector) ProcessFinishedCall(pool *CallPathPool) {
	root := pool.Root().Metadata()

	var tree strings.Builder
	// strings.Builder never fails to write.
	_ = WriteCallTree(&tree, pool, l.leftMargin)

	l.logger.Info().Msgf(
		"Call summary of %s@%s:%d\n\n%s",
		root.Name, root.File, root.Line, tree.String(),
	)
}

// WriteCallTree renders a finished call tree to w, one row per call
// path, indented by leftMargin spaces. Sibling call paths are ordered
// by the sequence in which they were first observed.
func WriteCallTree(w io.Writer, pool *CallPathPool, leftMargin int) error {
	p := treePrinter{w: w, pool: pool, leftMargin: leftMargin}
	return p.print()
}

type treePrinter struct {
	w          io.Writer
	pool       *CallPathPool
	leftMargin int
}

func (p treePrinter) print() error {
	if _, err := fmt.Fprintf(p.w,
		"%*s    # calls │    ∑ wall ms │     ∑ own ms │ span tree\n",
		p.leftMargin, ""); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(p.w,
		"%*s────────────┼──────────────┼──────────────┼───────────────────────\n",
		p.leftMargin, ""); err != nil {
		return err
	}
	return p.printNode([]bool{true}, p.pool.Root())
}

// printNode renders node and its subtree. last records, per ancestor
// level, whether that ancestor was the last of its siblings; it decides
// which branch characters connect the row to the tree.
func (p treePrinter) printNode(last []bool, node *CallPathTiming) error {
	wallMicros := node.SumWithChildren().Microseconds()
	ownMicros := node.SumWithoutChildren().Microseconds()
	if _, err := fmt.Fprintf(p.w,
		"%*s%7d %03d ┊ %8d.%03d ┊ %8d.%03d ┊ ",
		p.leftMargin, "",
		node.CallCount()/1000, node.CallCount()%1000,
		wallMicros/1000, wallMicros%1000,
		ownMicros/1000, ownMicros%1000); err != nil {
		return err
	}

	children := node.Children()
	childConnector := "┬"
	if len(children) == 0 {
		childConnector = "─"
	}

	var row strings.Builder
	if len(last) == 1 {
		row.WriteString(childConnector)
	} else {
		for _, isLast := range last[1 : len(last)-1] {
			if isLast {
				row.WriteString(" ")
			} else {
				row.WriteString("┊")
			}
		}
		if last[len(last)-1] {
			row.WriteString("╰")
		} else {
			row.WriteString("├")
		}
		row.WriteString(childConnector)
	}
	if _, err := fmt.Fprintf(p.w, "%s %s\n", row.String(), node.Metadata().Name); err != nil {
		return err
	}

	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	for i, childID := range children {
		child := p.pool.At(childID)
		if err := p.printNode(append(last, i == len(children)-1), child); err != nil {
			return err
		}
	}
	return nil
}
