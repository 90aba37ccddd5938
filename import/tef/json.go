package tef

// This package reads the Chrome Trace Event Format
// https://docs.google.com/document/d/1CvAClvFfyA5R-PhYUmn5OOQtYMH4h6I0nSsKchNAySU/preview

/*
{
  "traceEvents": [
    {"name": "EventDispatch", "cat": "devtools.timeline", "ph": "X", "pid": 1, "tid": 1, "ts": 829, "dur": 120,
     "args": {"data": {"type": "click"}}},
    {"name": "Paint", "cat": "devtools.timeline", "ph": "B", "pid": 1, "tid": 1, "ts": 1000},
    {"name": "Paint", "cat": "devtools.timeline", "ph": "E", "pid": 1, "tid": 1, "ts": 1400}
  ],
  "displayTimeUnit": "ms"
}
*/

type File struct {
	TraceEvents []Event `json:"traceEvents"`
	// DisplayTimeUnit is "ms" or "ns"; it does not affect timestamps, which are microseconds.
	DisplayTimeUnit string         `json:"displayTimeUnit"`
	OtherData       map[string]any `json:"otherData"`
}

type Event struct {
	// ID is a unique identifier for async events.
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Category string `json:"cat"`
	Phase    Phase  `json:"ph"`
	// Timestamp in microseconds.
	Timestamp float64 `json:"ts"`
	// ThreadTimestamp in microseconds.
	ThreadTimestamp float64 `json:"tts,omitempty"`
	ProcessID       int64   `json:"pid"`
	ThreadID        int64   `json:"tid"`
	// Scope of instant events: "g", "p" or "t".
	Scope string `json:"s,omitempty"`

	Stack []string       `json:"stack,omitempty"`
	Args  map[string]any `json:"args"`

	// Duration of Complete events in microseconds.
	Duration float64 `json:"dur,omitempty"`
}

type Phase string

const (
	DurationBegin Phase = "B"
	DurationEnd   Phase = "E"
	Complete      Phase = "X"
	Instant       Phase = "i"
	InstantLegacy Phase = "I"
	Counter       Phase = "C"
	Metadata      Phase = "M"
	Mark          Phase = "R"
)
