package trace

import (
	"math"
)

// Node is a single timed operation together with the operations nested in it.
//
// Children are owned by their parent and sorted by Start. A node never
// references its parent; code that needs to walk upwards receives the
// ancestor chain from Traverse.
type Node struct {
	// Sequence is assigned at ingestion to top-level nodes and equals their
	// index in the Store.
	Sequence int

	Type     Type
	Start    Time
	Duration Time

	Children    []*Node
	Annotations []Annotation
	Details     Details
	Profile     ProfileState

	derived derived
}

// derived holds values computed by visitors. Validity is tracked on the
// subtree root; descendants only carry the per-node flags.
type derived struct {
	aggregate    Aggregate
	aggregated   bool
	annotated    bool
	annotations  bool
	logs         bool
	inconsistent bool

	// drift is the negative self-time clamped in the subtree and not yet
	// reported as inconsistent.
	drift Time

	// anyInconsistent is set on the subtree root.
	anyInconsistent bool
}

// Range returns the interval covered by the node.
func (n *Node) Range() TimeRange {
	return TimeRange{Start: n.Start, Finish: n.Start + n.Duration}
}

// HasAnnotations reports whether the node or any descendant carries a
// diagnostic record. Valid after an AnnotationVisitor pass over the subtree.
func (n *Node) HasAnnotations() bool { return n.derived.annotations }

// HasLogs reports whether the node or any descendant is or carries a log message.
func (n *Node) HasLogs() bool { return n.derived.logs }

// DurationInconsistent reports whether the children of this node claim more
// time than the node itself.
func (n *Node) DurationInconsistent() bool { return n.derived.inconsistent }

// SubtreeInconsistent reports whether any node below and including n was
// found inconsistent by the last aggregation of n.
func (n *Node) SubtreeInconsistent() bool { return n.derived.anyInconsistent }

// Aggregate returns the cached per-type self-time of the subtree.
func (n *Node) Aggregate() (Aggregate, bool) {
	if !n.derived.aggregated {
		return nil, false
	}
	return n.derived.aggregate, true
}

// Annotated reports whether annotation flags have been computed for the subtree.
func (n *Node) Annotated() bool { return n.derived.annotated }

// Invalidate drops every value derived for the subtree rooted at n, so the
// next traversal recomputes them.
func (n *Node) Invalidate() {
	n.derived.aggregate = nil
	n.derived.aggregated = false
	n.derived.anyInconsistent = false
	n.derived.annotated = false
}

// ownRecords reports whether the node itself is, or carries, a diagnostic record.
func (n *Node) ownRecords() (annotations, logs bool) {
	logs = n.Type == TypeLog
	for _, a := range n.Annotations {
		if a.Kind == AnnotationLog {
			logs = true
		}
	}
	return logs || len(n.Annotations) > 0, logs
}

// AnnotationKind distinguishes diagnostic records.
type AnnotationKind uint8

const (
	AnnotationLog AnnotationKind = iota
	AnnotationHint
)

// Severity of a hint record.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// Annotation is a diagnostic sub-record embedded in a node.
type Annotation struct {
	Kind     AnnotationKind
	Severity Severity
	Rule     string
	Message  string
}

// ProfileState tracks a JavaScript profile that is attached after ingestion.
type ProfileState uint8

const (
	ProfileNone ProfileState = iota
	ProfileProcessing
	ProfileReady
)

// Details are type specific values recorded with an event.
type Details struct {
	Name       string
	URL        string
	LineNumber int
	ReadyState int
	Message    string
	BackTrace  string
	Overhead   Time

	TimerID    int
	SingleShot bool
	Interval   Time

	X, Y          int
	Width, Height int

	// Tuples summarize events folded into a LotsOfLittleEvents node.
	Tuples []TypeCount
}

// TypeCount is the count and total duration of folded events of one type.
type TypeCount struct {
	Type     Type
	Count    int
	Duration Time
}

type TimeRange struct {
	Start  Time
	Finish Time
}

var InvalidRange = TimeRange{
	Start:  Time(math.Inf(1)),
	Finish: Time(math.Inf(-1)),
}

func (a TimeRange) Duration() Time {
	return a.Finish - a.Start
}

func (a TimeRange) Less(b TimeRange) bool {
	if a.Start == b.Start {
		return a.Finish < b.Finish
	}
	return a.Start < b.Start
}

func (a TimeRange) Expand(b TimeRange) TimeRange {
	return TimeRange{
		Start:  a.Start.Min(b.Start),
		Finish: a.Finish.Max(b.Finish),
	}
}

// Contains reports whether b lies within a, allowing for Epsilon of rounding.
func (a TimeRange) Contains(b TimeRange) bool {
	return b.Start >= a.Start-Epsilon && b.Finish <= a.Finish+Epsilon
}
