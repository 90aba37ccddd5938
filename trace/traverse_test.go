package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loov.dev/eventview/trace"
)

type recorder struct {
	name  string
	order *[]string
}

func (r recorder) PreVisit(node *trace.Node, ancestors []*trace.Node) {
	*r.order = append(*r.order, r.name+":pre:"+node.Details.Name)
}

func (r recorder) PostVisit(node *trace.Node, ancestors []*trace.Node) {
	*r.order = append(*r.order, r.name+":post:"+node.Details.Name)
}

func named(name string, start, duration trace.Time, children ...*trace.Node) *trace.Node {
	n := node(trace.TypeDom, start, duration, children...)
	n.Details.Name = name
	return n
}

func TestTraverseOrder(t *testing.T) {
	root := named("a", 0, 10,
		named("b", 1, 4,
			named("c", 2, 1)),
		named("d", 6, 2))

	var order []string
	r := recorder{name: "r", order: &order}
	trace.Traverse([]trace.PreOrderVisitor{r}, root, []trace.PostOrderVisitor{r})

	assert.Equal(t, []string{
		"r:pre:a", "r:pre:b", "r:pre:c", "r:post:c", "r:post:b",
		"r:pre:d", "r:post:d", "r:post:a",
	}, order)
}

func TestTraverseVisitorOrder(t *testing.T) {
	root := named("a", 0, 10, named("b", 1, 1))

	var order []string
	first := recorder{name: "1", order: &order}
	second := recorder{name: "2", order: &order}
	trace.Traverse(
		[]trace.PreOrderVisitor{first, second}, root,
		[]trace.PostOrderVisitor{second, first})

	assert.Equal(t, []string{
		"1:pre:a", "2:pre:a",
		"1:pre:b", "2:pre:b",
		"2:post:b", "1:post:b",
		"2:post:a", "1:post:a",
	}, order)
}

func TestTraverseAncestors(t *testing.T) {
	c := named("c", 2, 1)
	b := named("b", 1, 4, c)
	a := named("a", 0, 10, b)

	chains := map[string][]string{}
	trace.Traverse(nil, a, []trace.PostOrderVisitor{trace.VisitorFunc(func(node *trace.Node, ancestors []*trace.Node) {
		var names []string
		for _, anc := range ancestors {
			names = append(names, anc.Details.Name)
		}
		chains[node.Details.Name] = names
	})})

	assert.Empty(t, chains["a"])
	assert.Equal(t, []string{"a"}, chains["b"])
	assert.Equal(t, []string{"a", "b"}, chains["c"])
}

func TestTraverseNil(t *testing.T) {
	called := false
	trace.Traverse([]trace.PreOrderVisitor{trace.VisitorFunc(func(*trace.Node, []*trace.Node) {
		called = true
	})}, nil, nil)
	assert.False(t, called)
}

func TestTraverseDeep(t *testing.T) {
	const depth = 100000

	root := node(trace.TypeJavaScript, 0, depth)
	parent := root
	for i := 1; i < depth; i++ {
		child := node(trace.TypeJavaScript, trace.Time(i), trace.Time(depth-i))
		parent.Children = []*trace.Node{child}
		parent = child
	}

	pre, post, deepest := 0, 0, 0
	trace.Traverse(
		[]trace.PreOrderVisitor{trace.VisitorFunc(func(_ *trace.Node, ancestors []*trace.Node) {
			pre++
			if len(ancestors) > deepest {
				deepest = len(ancestors)
			}
		})},
		root,
		[]trace.PostOrderVisitor{trace.VisitorFunc(func(*trace.Node, []*trace.Node) {
			post++
		})})

	assert.Equal(t, depth, pre)
	assert.Equal(t, depth, post)
	assert.Equal(t, depth-1, deepest)

	agg, inconsistent := trace.Derive(root)
	require.Zero(t, inconsistent)
	assert.InDelta(t, float64(depth), float64(agg.Total()), 1e-6)

	store := trace.NewStore()
	_, err := store.Append(root)
	require.NoError(t, err)
}
