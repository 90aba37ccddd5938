package trace

import (
	"fmt"
	"strconv"
)

// Field is one labelled value describing an event.
type Field struct {
	Key   string
	Value string
}

// Timers remembers timer installations so that later timer events can be
// described with the timer's settings.
type Timers struct {
	installed map[int]Details
}

func NewTimers() *Timers {
	return &Timers{installed: make(map[int]Details)}
}

// Observe records every TimerInstalled event in the subtree of root.
func (timers *Timers) Observe(root *Node) {
	Traverse([]PreOrderVisitor{VisitorFunc(func(node *Node, _ []*Node) {
		if node.Type == TypeTimerInstalled {
			timers.installed[node.Details.TimerID] = node.Details
		}
	})}, root, nil)
}

// Installed returns the details of the installation of timer id.
func (timers *Timers) Installed(id int) (Details, bool) {
	if timers == nil {
		return Details{}, false
	}
	d, ok := timers.installed[id]
	return d, ok
}

// Summary describes node as an ordered list of fields. timers may be nil.
func Summary(node *Node, timers *Timers) []Field {
	fields := []Field{
		{"Description", node.Detailed()},
		{"@", FormatMillis(node.Start)},
	}
	if node.Duration > 0 {
		fields = append(fields, Field{"Duration", FormatMillisPrecision(node.Duration, 3)})
	}
	if node.Details.BackTrace != "" {
		fields = append(fields, Field{"Stack Trace", node.Details.BackTrace})
	}

	d := node.Details
	switch node.Type {
	case TypeLotsOfLittleEvents:
		for _, tuple := range d.Tuples {
			fields = append(fields, Field{tuple.Type.String(),
				fmt.Sprintf("count: %d duration: %s", tuple.Count, FormatMillisPrecision(tuple.Duration, 3))})
		}
	case TypeTimerFired:
		if installed, ok := timers.Installed(d.TimerID); ok {
			fields = append(fields, timerFields(installed)...)
		}
	case TypeTimerInstalled:
		fields = append(fields, timerFields(d)...)
	case TypeTimerCleared:
		fields = append(fields, Field{"Cleared Timer Id", strconv.Itoa(d.TimerID)})
	case TypePaint:
		fields = append(fields,
			Field{"Origin", fmt.Sprintf("%d, %d", d.X, d.Y)},
			Field{"Size", fmt.Sprintf("%d x %d", d.Width, d.Height)})
	case TypeEvalScript:
		fields = append(fields,
			Field{"Url", d.URL},
			Field{"Line Number", strconv.Itoa(d.LineNumber)})
	case TypeXHRReadyStateChange:
		fields = append(fields,
			Field{"Ready State", strconv.Itoa(d.ReadyState)},
			Field{"Url", d.URL})
	case TypeXHRLoad, TypeResourceRequest:
		fields = append(fields, Field{"Url", d.URL})
	case TypeLog:
		fields = append(fields, Field{"Message", d.Message})
	case TypeDom, TypeLayout, TypeRecalcStyle, TypeParseHTML, TypeJavaScript, TypeGC, TypeMark:
	}

	if d.Overhead > 0 {
		fields = append(fields, Field{"Overhead", FormatMillisPrecision(d.Overhead, 2)})
	}
	return fields
}

func timerFields(d Details) []Field {
	kind := "setInterval"
	if d.SingleShot {
		kind = "setTimeout"
	}
	return []Field{
		{"Timer Id", strconv.Itoa(d.TimerID)},
		{"Timer Type", kind},
		{"Interval", strconv.FormatFloat(float64(d.Interval), 'f', -1, 64) + "ms"},
	}
}

// FormatMillis formats t with one decimal, for example "12.5ms" or "1.2s".
func FormatMillis(t Time) string { return FormatMillisPrecision(t, 1) }

// FormatMillisPrecision formats t with the given number of decimals.
func FormatMillisPrecision(t Time, prec int) string {
	if t >= 1000 {
		return strconv.FormatFloat(float64(t)/1000, 'f', prec, 64) + "s"
	}
	return strconv.FormatFloat(float64(t), 'f', prec, 64) + "ms"
}
