package eval

import "time"

// TraceEntry is one observation emitted by a trace() call: the name
// argument, the unchanged input collection, an optional projection, and the
// input's cardinality.
type TraceEntry struct {
	Timestamp  time.Time
	Name       string
	Input      interface{}
	Projection interface{}
	Count      int
}

// TraceSink receives trace() observations during evaluation. A Context
// carries at most one, set via SetTraceSink; with none set, trace() falls
// back to the funcs package's process-wide default logger.
type TraceSink interface {
	Trace(entry TraceEntry)
}
