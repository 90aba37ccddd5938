package trace

// AnnotationVisitor marks every node that has a diagnostic record in its
// subtree. It must be registered both as pre-order and post-order visitor:
// the pre-order pass resets a node from its own records and the post-order
// pass propagates the flags to the parent once the subtree is complete.
type AnnotationVisitor struct {
	root    *Node
	applied bool
}

// NewAnnotationVisitor prepares annotation of the subtree rooted at root.
func NewAnnotationVisitor(root *Node) *AnnotationVisitor {
	return &AnnotationVisitor{root: root, applied: root.Annotated()}
}

func (v *AnnotationVisitor) AlreadyApplied() bool { return v.applied }

func (v *AnnotationVisitor) PreVisit(node *Node, ancestors []*Node) {
	if v.applied {
		return
	}
	node.derived.annotations, node.derived.logs = node.ownRecords()
}

func (v *AnnotationVisitor) PostVisit(node *Node, ancestors []*Node) {
	if v.applied {
		return
	}
	if len(ancestors) > 0 {
		parent := ancestors[len(ancestors)-1]
		parent.derived.annotations = parent.derived.annotations || node.derived.annotations
		parent.derived.logs = parent.derived.logs || node.derived.logs
	}
	if node == v.root {
		node.derived.annotated = true
		v.applied = true
	}
}

// Derive runs annotation and aggregation over root in a single walk,
// skipping whichever is already cached. It returns the aggregate and the
// number of inconsistent nodes found.
func Derive(root *Node) (Aggregate, int) {
	agg := NewAggregateTimeVisitor(root)
	ann := NewAnnotationVisitor(root)

	var pre []PreOrderVisitor
	var post []PostOrderVisitor
	if !ann.AlreadyApplied() {
		pre = append(pre, ann)
		post = append(post, ann)
	}
	if !agg.AlreadyApplied() {
		post = append(post, agg)
	}
	if len(pre) > 0 || len(post) > 0 {
		Traverse(pre, root, post)
	}
	return agg.Result(), agg.Inconsistent
}
