package trace

// PreOrderVisitor is called for a node before any of its children.
//
// ancestors lists the path from the traversal root to the parent of node.
// It is only valid for the duration of the call.
type PreOrderVisitor interface {
	PreVisit(node *Node, ancestors []*Node)
}

// PostOrderVisitor is called for a node after all of its children.
type PostOrderVisitor interface {
	PostVisit(node *Node, ancestors []*Node)
}

// Traverse walks the tree rooted at root exactly once. Several visitors can
// share one walk; they are invoked in slice order.
//
// The walk uses an explicit stack, so nesting depth is bounded only by memory.
func Traverse(pre []PreOrderVisitor, root *Node, post []PostOrderVisitor) {
	if root == nil {
		return
	}

	type frame struct {
		node *Node
		next int
	}

	// path mirrors the stack and doubles as the ancestor chain.
	path := make([]*Node, 0, 16)
	stack := make([]frame, 0, 16)

	enter := func(node *Node) {
		for _, v := range pre {
			v.PreVisit(node, path)
		}
		path = append(path, node)
		stack = append(stack, frame{node: node})
	}

	enter(root)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.Children) {
			child := top.node.Children[top.next]
			top.next++
			enter(child)
			continue
		}

		node := top.node
		stack = stack[:len(stack)-1]
		path = path[:len(path)-1]
		for _, v := range post {
			v.PostVisit(node, path)
		}
	}
}

// VisitorFunc adapts a function to both visitor interfaces.
type VisitorFunc func(node *Node, ancestors []*Node)

func (fn VisitorFunc) PreVisit(node *Node, ancestors []*Node)  { fn(node, ancestors) }
func (fn VisitorFunc) PostVisit(node *Node, ancestors []*Node) { fn(node, ancestors) }
