// Package reqray logs "request x-rays": aggregated wall/own times for
// every call path of an instrumented request, as frequently found in
// flame graphs, in a human-friendly text format.
//
//	    # calls │    ∑ wall ms │     ∑ own ms │ span tree
//	────────────┼──────────────┼──────────────┼───────────────────────
//	      0 001 ┊      258.890 ┊        0.106 ┊ ┬ request
//	      0 001 ┊       87.190 ┊       19.299 ┊ ├┬ nested
//	      0 001 ┊        0.021 ┊        0.021 ┊ ┊├─ random
//	      1 000 ┊       61.912 ┊       61.912 ┊ ┊╰─ repeated
//	      0 002 ┊        0.027 ┊        0.027 ┊ ├─ repeated
//	      0 001 ┊      169.905 ┊       17.883 ┊ ╰┬ nested2
//
//   - "# calls": how many spans were created at this call path.
//   - "∑ wall ms": total time spans at this call path were entered,
//     including time spent in child spans.
//   - "∑ own ms": total time spans at this call path were entered with
//     no child span entered.
//
// Core Components:
//   - CallTreeCollector: aggregates span timings by call path.
//   - CallPathPool / CallPathTiming: the finished, queryable call tree.
//   - FinishedCallTreeProcessor: consumes finished trees; logging,
//     metrics and JSON implementations are included.
//   - Tracer / ActiveSpan: the built-in span registry driving the
//     collector.
//
// Basic Usage:
//
//	tracer := reqray.New()
//
//	ctx, span := tracer.StartSpan(ctx, "request")
//	defer span.Finish()
//
//	// Pass context to child operations.
//	childCtx, childSpan := tracer.StartSpan(ctx, "nested")
//	defer childSpan.Finish()
//
// Once the root span finishes, the aggregated call tree is handed to
// the configured processor, by default a LoggingCallTreeCollector.
//
// Thread Safety:
//
// Tracer, ActiveSpan and the collector hooks are safe for concurrent
// use. The same span may even be entered on several goroutines at once
// via ActiveSpan.Resume; each goroutine's busy stretches are accounted
// independently and summed.
//
// Memory Management:
//
// Call paths deeper than the collector's maximum call depth are not
// tracked: such spans cost nothing and their time is recorded as if
// their execution were inlined into the nearest tracked ancestor.
package reqray
