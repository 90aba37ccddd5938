package trace

// Aggregate maps event types to accumulated self-time.
type Aggregate map[Type]Time

// Total sums all types.
func (agg Aggregate) Total() Time {
	var total Time
	for _, t := range Types() {
		total += agg[t]
	}
	return total
}

// Clone returns a copy that may be modified by the caller.
func (agg Aggregate) Clone() Aggregate {
	c := make(Aggregate, len(agg))
	for k, v := range agg {
		c[k] = v
	}
	return c
}

// AggregateTimeVisitor computes the per-type self-time of the subtree it
// was created for. The result is cached on the root, so visiting a subtree
// whose aggregate is already known does nothing.
type AggregateTimeVisitor struct {
	root      *Node
	durations Aggregate
	applied   bool

	// Inconsistent counts nodes whose children overrun them.
	Inconsistent int
}

// NewAggregateTimeVisitor prepares aggregation of the subtree rooted at root.
func NewAggregateTimeVisitor(root *Node) *AggregateTimeVisitor {
	if agg, ok := root.Aggregate(); ok {
		return &AggregateTimeVisitor{root: root, durations: agg, applied: true}
	}
	return &AggregateTimeVisitor{root: root, durations: Aggregate{}}
}

// AlreadyApplied reports whether the root carried a cached aggregate.
func (v *AggregateTimeVisitor) AlreadyApplied() bool { return v.applied }

// Result returns the per-type durations, cached on the root once the
// traversal has finished.
func (v *AggregateTimeVisitor) Result() Aggregate { return v.durations }

func (v *AggregateTimeVisitor) PostVisit(node *Node, ancestors []*Node) {
	if v.applied {
		return
	}

	self := node.Duration
	var drift Time
	for _, child := range node.Children {
		self -= child.Duration
		drift += child.derived.drift
	}
	node.derived.inconsistent = false
	if self < 0 {
		drift -= self
		self = 0
	}
	// drift is the rounding clamped away in the subtree; it must stay within
	// Epsilon however deep the nesting.
	if drift > Epsilon {
		node.derived.inconsistent = true
		v.Inconsistent++
		drift = 0
	}
	node.derived.drift = drift

	v.durations[attribute(node, ancestors)] += self

	if node == v.root {
		node.derived.aggregate = v.durations
		node.derived.aggregated = true
		node.derived.anyInconsistent = v.Inconsistent > 0
		v.applied = true
	}
}

// attribute picks the type that receives the self-time of node.
func attribute(node *Node, ancestors []*Node) Type {
	if node.Type.SelfTimeEligible() {
		return node.Type
	}
	for i := len(ancestors) - 1; i >= 0; i-- {
		if ancestors[i].Type.SelfTimeEligible() {
			return ancestors[i].Type
		}
	}
	return node.Type
}
