package tef

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"loov.dev/eventview/trace"
)

type threadID struct {
	ProcessID int64
	ThreadID  int64
}

// span is a complete event in microseconds.
type span struct {
	event  *Event
	start  float64
	finish float64
}

// Convert builds event trees from the events of file. Nesting is derived
// from interval containment per thread. Times are made relative to the
// earliest event and converted to milliseconds.
//
// Events whose name has no matching type are skipped; their children are
// attached to the closest enclosing known event. Begin events without an
// end are dropped with a warning.
func Convert(file File) ([]*trace.Node, error) {
	return ConvertWithLogger(file, slog.Default().With("component", "tef"))
}

// ConvertWithLogger is Convert reporting pairing problems to log.
func ConvertWithLogger(file File, log *slog.Logger) ([]*trace.Node, error) {
	spansByThread := make(map[threadID][]span)
	open := make(map[threadID][]*Event)
	origin := 0.0
	first := true

	for i := range file.TraceEvents {
		ev := &file.TraceEvents[i]
		tid := threadID{ProcessID: ev.ProcessID, ThreadID: ev.ThreadID}
		if ev.Phase != Metadata && ev.Phase != Counter && (first || ev.Timestamp < origin) {
			origin, first = ev.Timestamp, false
		}

		switch ev.Phase {
		case Complete:
			if ev.Duration < 0 {
				return nil, fmt.Errorf("event %q at %v: negative duration %v", ev.Name, ev.Timestamp, ev.Duration)
			}
			spansByThread[tid] = append(spansByThread[tid], span{event: ev, start: ev.Timestamp, finish: ev.Timestamp + ev.Duration})
		case DurationBegin:
			open[tid] = append(open[tid], ev)
		case DurationEnd:
			stack := open[tid]
			if len(stack) == 0 {
				return nil, fmt.Errorf("event %q at %v: end without begin", ev.Name, ev.Timestamp)
			}
			begin := stack[len(stack)-1]
			open[tid] = stack[:len(stack)-1]
			if ev.Timestamp < begin.Timestamp {
				return nil, fmt.Errorf("event %q at %v: ends before it begins", begin.Name, begin.Timestamp)
			}
			if ev.Name != "" && ev.Name != begin.Name {
				log.Warn("end paired with a differently named begin",
					"begin", begin.Name, "end", ev.Name, "ts", ev.Timestamp,
					"pid", tid.ProcessID, "tid", tid.ThreadID)
			}
			spansByThread[tid] = append(spansByThread[tid], span{event: begin, start: begin.Timestamp, finish: ev.Timestamp})
		case Instant, InstantLegacy, Mark:
			spansByThread[tid] = append(spansByThread[tid], span{event: ev, start: ev.Timestamp, finish: ev.Timestamp})
		}
	}

	unclosed := 0
	for _, stack := range open {
		unclosed += len(stack)
	}
	if unclosed > 0 {
		log.Warn("begin events without end dropped", "count", unclosed)
	}

	var roots []*trace.Node
	for _, spans := range spansByThread {
		roots = append(roots, nest(spans, origin)...)
	}

	sort.SliceStable(roots, func(i, k int) bool {
		return roots[i].Range().Less(roots[k].Range())
	})
	return roots, nil
}

// nest builds trees out of the spans of one thread.
func nest(spans []span, origin float64) []*trace.Node {
	sort.SliceStable(spans, func(i, k int) bool {
		a, b := spans[i], spans[k]
		if a.start == b.start {
			return a.finish > b.finish
		}
		return a.start < b.start
	})

	type open struct {
		node   *trace.Node
		finish float64
	}

	var roots []*trace.Node
	var stack []open
	for _, s := range spans {
		typ, ok := classify(s.event)
		if !ok {
			continue
		}
		node := &trace.Node{
			Type:     typ,
			Start:    trace.Time((s.start - origin) / 1000),
			Duration: trace.Time((s.finish - s.start) / 1000),
		}
		fillDetails(node, s.event)

		for len(stack) > 0 && stack[len(stack)-1].finish < s.finish {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, open{node: node, finish: s.finish})
	}
	return roots
}

var typeByName = map[string]trace.Type{
	"EventDispatch":       trace.TypeDom,
	"Layout":              trace.TypeLayout,
	"UpdateLayoutTree":    trace.TypeRecalcStyle,
	"RecalculateStyles":   trace.TypeRecalcStyle,
	"Paint":               trace.TypePaint,
	"ParseHTML":           trace.TypeParseHTML,
	"TimerInstall":        trace.TypeTimerInstalled,
	"TimerRemove":         trace.TypeTimerCleared,
	"TimerFire":           trace.TypeTimerFired,
	"XHRReadyStateChange": trace.TypeXHRReadyStateChange,
	"XHRLoad":             trace.TypeXHRLoad,
	"EvaluateScript":      trace.TypeEvalScript,
	"ConsoleTime":         trace.TypeLog,
	"TimeStamp":           trace.TypeLog,
	"FunctionCall":        trace.TypeJavaScript,
	"V8.Execute":          trace.TypeJavaScript,
	"MinorGC":             trace.TypeGC,
	"MajorGC":             trace.TypeGC,
	"GCEvent":             trace.TypeGC,
	"ResourceSendRequest": trace.TypeResourceRequest,
	"MarkLoad":            trace.TypeMark,
	"MarkDOMContent":      trace.TypeMark,
	"MarkFirstPaint":      trace.TypeMark,
}

func classify(ev *Event) (trace.Type, bool) {
	if typ, ok := typeByName[ev.Name]; ok {
		return typ, true
	}
	switch {
	case strings.Contains(ev.Category, "console"):
		return trace.TypeLog, true
	case ev.Phase == Mark:
		return trace.TypeMark, true
	}
	return 0, false
}

func fillDetails(node *trace.Node, ev *Event) {
	data := argData(ev.Args)
	d := &node.Details
	d.Name = ev.Name
	d.URL = argString(data, "url")
	d.LineNumber = argInt(data, "lineNumber")
	d.TimerID = argInt(data, "timerId")
	d.SingleShot = argBool(data, "singleShot")
	d.Interval = trace.Time(argFloat(data, "timeout"))
	d.ReadyState = argInt(data, "readyState")
	if len(ev.Stack) > 0 {
		d.BackTrace = strings.Join(ev.Stack, "\n")
	}

	switch node.Type {
	case trace.TypeDom:
		if name := argString(data, "type"); name != "" {
			d.Name = name
		}
	case trace.TypePaint:
		d.X = argInt(data, "x")
		d.Y = argInt(data, "y")
		d.Width = argInt(data, "width")
		d.Height = argInt(data, "height")
	case trace.TypeLog:
		d.Message = argString(data, "message")
		if d.Message == "" {
			d.Message = ev.Name
		}
		node.Annotations = append(node.Annotations, trace.Annotation{
			Kind:    trace.AnnotationLog,
			Message: d.Message,
		})
	case trace.TypeLayout, trace.TypeRecalcStyle, trace.TypeParseHTML,
		trace.TypeTimerInstalled, trace.TypeTimerCleared, trace.TypeTimerFired,
		trace.TypeXHRReadyStateChange, trace.TypeXHRLoad, trace.TypeEvalScript,
		trace.TypeJavaScript, trace.TypeGC, trace.TypeResourceRequest,
		trace.TypeMark, trace.TypeLotsOfLittleEvents:
	}
}

// argData returns args.data when present, otherwise args.
func argData(args map[string]any) map[string]any {
	if data, ok := args["data"].(map[string]any); ok {
		return data
	}
	return args
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argFloat(args map[string]any, key string) float64 {
	f, _ := args[key].(float64)
	return f
}

func argInt(args map[string]any, key string) int { return int(argFloat(args, key)) }

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}
