package trace

import (
	"sort"

	"github.com/google/uuid"
	"github.com/zeebo/errs/v2"
)

// maxBackwardScan bounds the linear walk towards the left edge of a window.
// Windows usually slide by a few events per frame, so the walk is short;
// dense windows fall back to a binary search.
const maxBackwardScan = 64

// Store is the append-only log of top-level nodes of a single capture.
//
// Store is not safe for concurrent use.
type Store struct {
	capture uuid.UUID
	nodes   []*Node
	extent  TimeRange
}

// NewStore creates an empty store for a new capture.
func NewStore() *Store {
	return &Store{
		capture: uuid.New(),
		nodes:   make([]*Node, 0, 4096),
		extent:  InvalidRange,
	}
}

// Capture identifies the trace capture the store belongs to.
func (s *Store) Capture() uuid.UUID { return s.capture }

// Reset clears the store for a new capture.
func (s *Store) Reset() {
	for i := range s.nodes {
		s.nodes[i] = nil
	}
	s.nodes = s.nodes[:0]
	s.extent = InvalidRange
	s.capture = uuid.New()
}

// Len returns the number of top-level nodes.
func (s *Store) Len() int { return len(s.nodes) }

// At returns the node at index i, which is also its sequence number.
func (s *Store) At(i int) *Node { return s.nodes[i] }

// Lookup returns the node with the given sequence number.
func (s *Store) Lookup(sequence int) (*Node, bool) {
	if sequence < 0 || sequence >= len(s.nodes) {
		return nil, false
	}
	return s.nodes[sequence], true
}

// Nodes returns the nodes in [begin, end). The slice must not be modified.
func (s *Store) Nodes(begin, end int) []*Node { return s.nodes[begin:end:end] }

// Extent returns the time range covered by all nodes.
func (s *Store) Extent() TimeRange { return s.extent }

// Append assigns the next sequence number to node and appends it.
func (s *Store) Append(node *Node) (int, error) {
	if node != nil {
		node.Sequence = len(s.nodes)
	}
	if err := s.AppendSequenced(node); err != nil {
		return 0, err
	}
	return node.Sequence, nil
}

// AppendSequenced appends a node whose sequence number was assigned by the
// caller. The sequence must equal Len.
func (s *Store) AppendSequenced(node *Node) error {
	if err := Validate(node); err != nil {
		return err
	}
	if node.Sequence != len(s.nodes) {
		return malformed("sequence %d, expected %d", node.Sequence, len(s.nodes))
	}
	if n := len(s.nodes); n > 0 && node.Start < s.nodes[n-1].Start {
		return malformed("start %v before previous start %v", node.Start, s.nodes[n-1].Start)
	}

	s.nodes = append(s.nodes, node)
	s.extent = s.extent.Expand(node.Range())
	return nil
}

// Range returns the maximal half-open index range [begin, end) of nodes whose
// start lies in [left, right]. An empty result is positioned at the boundary
// where such nodes would be.
func (s *Store) Range(left, right Time) (begin, end int, err error) {
	if err := CheckWindow(left, right); err != nil {
		return 0, 0, err
	}

	nodes := s.nodes
	end = sort.Search(len(nodes), func(i int) bool {
		return nodes[i].Start > right
	})

	begin = end
	for steps := 0; begin > 0 && nodes[begin-1].Start >= left; steps++ {
		if steps == maxBackwardScan {
			begin = sort.Search(begin, func(i int) bool {
				return nodes[i].Start >= left
			})
			break
		}
		begin--
	}

	return begin, end, nil
}

// CheckWindow verifies that [left, right] is a valid window. right may be Live.
func CheckWindow(left, right Time) error {
	if !left.valid() {
		return errs.Errorf("%w: left %v", ErrInvalidWindow, left)
	}
	if !right.IsLive() && !right.valid() {
		return errs.Errorf("%w: right %v", ErrInvalidWindow, right)
	}
	if left > right {
		return errs.Errorf("%w: left %v after right %v", ErrInvalidWindow, left, right)
	}
	return nil
}
