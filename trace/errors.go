package trace

import (
	"errors"

	"github.com/zeebo/errs/v2"
)

var (
	// ErrMalformedEvent is returned when a node violates the event model.
	// The store is left unmodified.
	ErrMalformedEvent = errors.New("malformed event")
	// ErrInvalidWindow is returned for negative, NaN or inverted windows.
	ErrInvalidWindow = errors.New("invalid window")
)

func malformed(format string, args ...interface{}) error {
	return errs.Errorf("%w: "+format, append([]interface{}{ErrMalformedEvent}, args...)...)
}

// Validate checks that root and its subtree follow the event model. Every
// descendant must lie within its parent and within root, so the rounding
// tolerance does not add up with depth.
func Validate(root *Node) error {
	if root == nil {
		return malformed("nil node")
	}
	outer := root.Range()

	stack := []*Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.Type.Valid() {
			return malformed("unknown type %d", uint8(node.Type))
		}
		if !node.Start.valid() {
			return malformed("%v start %v", node.Type, node.Start)
		}
		if !node.Duration.valid() {
			return malformed("%v duration %v", node.Type, node.Duration)
		}

		span := node.Range()
		var prev Time
		for i, child := range node.Children {
			if child == nil {
				return malformed("%v has nil child %d", node.Type, i)
			}
			if i > 0 && child.Start < prev {
				return malformed("%v children out of order at %d", node.Type, i)
			}
			prev = child.Start
			if child.Start.valid() && child.Duration.valid() {
				r := child.Range()
				if !span.Contains(r) {
					return malformed("%v child %d [%v, %v] outside [%v, %v]",
						node.Type, i, r.Start, r.Finish, span.Start, span.Finish)
				}
				if !outer.Contains(r) {
					return malformed("%v child %d [%v, %v] outside root [%v, %v]",
						node.Type, i, r.Start, r.Finish, outer.Start, outer.Finish)
				}
			}
			stack = append(stack, child)
		}
	}
	return nil
}
