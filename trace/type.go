package trace

import "fmt"

// Type identifies the kind of browser activity an event records.
type Type uint8

const (
	TypeDom Type = iota
	TypeLayout
	TypeRecalcStyle
	TypePaint
	TypeParseHTML
	TypeTimerInstalled
	TypeTimerCleared
	TypeTimerFired
	TypeXHRReadyStateChange
	TypeXHRLoad
	TypeEvalScript
	TypeLog
	TypeJavaScript
	TypeGC
	TypeResourceRequest
	TypeMark
	TypeLotsOfLittleEvents

	typeCount
)

// Types lists every known type in wire-code order.
func Types() []Type {
	types := make([]Type, 0, typeCount)
	for t := Type(0); t < typeCount; t++ {
		types = append(types, t)
	}
	return types
}

// ParseType converts a wire code into a Type.
func ParseType(code int) (Type, error) {
	if code < 0 || code >= int(typeCount) {
		return 0, fmt.Errorf("unknown event type %d", code)
	}
	return Type(code), nil
}

func (t Type) Valid() bool { return t < typeCount }

// SelfTimeEligible reports whether time spent directly in an event of this
// type is attributed to the type itself. Instant markers hand their self-time
// to the nearest eligible ancestor.
func (t Type) SelfTimeEligible() bool {
	switch t {
	case TypeTimerInstalled, TypeTimerCleared, TypeLog, TypeMark:
		return false
	case TypeDom, TypeLayout, TypeRecalcStyle, TypePaint, TypeParseHTML,
		TypeTimerFired, TypeXHRReadyStateChange, TypeXHRLoad, TypeEvalScript,
		TypeJavaScript, TypeGC, TypeResourceRequest, TypeLotsOfLittleEvents:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t {
	case TypeDom:
		return "DOM Event"
	case TypeLayout:
		return "Layout"
	case TypeRecalcStyle:
		return "Style Recalculation"
	case TypePaint:
		return "Paint"
	case TypeParseHTML:
		return "Parse HTML"
	case TypeTimerInstalled:
		return "Timer Installed"
	case TypeTimerCleared:
		return "Timer Cleared"
	case TypeTimerFired:
		return "Timer Fire"
	case TypeXHRReadyStateChange:
		return "XMLHttpRequest"
	case TypeXHRLoad:
		return "XHR Load"
	case TypeEvalScript:
		return "Script Evaluation"
	case TypeLog:
		return "Log Message"
	case TypeJavaScript:
		return "JavaScript Callback"
	case TypeGC:
		return "Garbage Collection"
	case TypeResourceRequest:
		return "Resource Request"
	case TypeMark:
		return "Mark"
	case TypeLotsOfLittleEvents:
		return "Lots of Little Events"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Detailed returns a description that includes node specific context,
// for example the dom event name or the timer kind.
func (n *Node) Detailed() string {
	switch n.Type {
	case TypeDom:
		if n.Details.Name != "" {
			return n.Type.String() + " " + n.Details.Name
		}
	case TypeTimerFired, TypeTimerInstalled, TypeTimerCleared:
		return fmt.Sprintf("%s (%d)", n.Type, n.Details.TimerID)
	case TypeXHRReadyStateChange:
		return fmt.Sprintf("%s (%d)", n.Type, n.Details.ReadyState)
	case TypeLayout, TypeRecalcStyle, TypePaint, TypeParseHTML, TypeXHRLoad,
		TypeEvalScript, TypeLog, TypeJavaScript, TypeGC, TypeResourceRequest,
		TypeMark, TypeLotsOfLittleEvents:
	}
	return n.Type.String()
}
