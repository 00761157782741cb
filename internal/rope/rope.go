package rope

import "strings"

// Rope is either a Leaf or a Node. Exactly one of the two is set.
// Ropes are immutable; every operation returns a new rope.
type Rope struct {
	leaf *Leaf
	node *Node
}

// New creates a single-leaf rope holding s.
func New(s string) *Rope {
	return &Rope{leaf: NewLeaf(s)}
}

// Empty creates a rope holding no characters.
func Empty() *Rope {
	return &Rope{leaf: emptyLeaf()}
}

// IsLeaf returns true if the rope is a single leaf.
func (r *Rope) IsLeaf() bool {
	return r.leaf != nil
}

// IsNode returns true if the rope is an internal node.
func (r *Rope) IsNode() bool {
	return r.node != nil
}

// Leaf returns the rope's leaf, or nil for a node.
func (r *Rope) Leaf() *Leaf {
	return r.leaf
}

// Node returns the rope's node, or nil for a leaf.
func (r *Rope) Node() *Node {
	return r.node
}

// branch returns the node of a rope that is known not to be a leaf.
func (r *Rope) branch() *Node {
	if r.node == nil {
		invariant("rope is neither leaf nor node")
	}
	return r.node
}

// Weight returns the leaf's character count, or the node's cached left weight.
func (r *Rope) Weight() int {
	if r.leaf != nil {
		return r.leaf.Weight()
	}
	return r.branch().weight
}

// Length returns the number of characters in the rope.
func (r *Rope) Length() int {
	n := 0
	cur := r
	for cur.leaf == nil {
		node := cur.branch()
		n += node.weight
		cur = node.mustRight()
	}
	return n + cur.leaf.Weight()
}

// Index returns the character at position i.
// Returns 0 and false if i is outside [0, Length()).
func (r *Rope) Index(i int) (rune, bool) {
	if i < 0 {
		return 0, false
	}

	cur := r
	for cur.leaf == nil {
		node := cur.branch()
		// The left subtree owns [0, weight).
		if i < node.weight {
			cur = node.mustLeft()
		} else {
			i -= node.weight
			cur = node.mustRight()
		}
	}
	return cur.leaf.Index(i)
}

// splitStep records one descent during Split.
type splitStep struct {
	node     *Node
	wentLeft bool
}

// Split splits the rope at offset. The left rope holds [0, offset) and the
// right rope holds [offset, Length()). Offsets outside the rope clamp to an
// empty rope on one side.
//
// Only the nodes on the path to offset are rebuilt: when the split point lies
// in a left subtree, the split remainder is joined with the untouched right
// sibling, and vice versa.
func (r *Rope) Split(offset int) (*Rope, *Rope) {
	var path []splitStep

	cur := r
	for cur.leaf == nil {
		node := cur.branch()
		if offset < node.weight {
			path = append(path, splitStep{node: node, wentLeft: true})
			cur = node.mustLeft()
		} else {
			path = append(path, splitStep{node: node})
			offset -= node.weight
			cur = node.mustRight()
		}
	}

	ll, lr := cur.leaf.Split(offset)
	left, right := &Rope{leaf: ll}, &Rope{leaf: lr}

	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]
		if step.wentLeft {
			right = Join(right, step.node.mustRight())
		} else {
			left = Join(step.node.mustLeft(), left)
		}
	}
	return left, right
}

// Insert returns a rope with s inserted before position offset.
func (r *Rope) Insert(s string, offset int) *Rope {
	l, rest := r.Split(offset)
	return Join(Join(l, New(s)), rest)
}

// Delete returns a rope with the inclusive range [start, end] removed.
// An empty or inverted range leaves the content unchanged.
func (r *Rope) Delete(start, end int) *Rope {
	l, rest := r.Split(start)
	_, tail := rest.Split(end - start + 1)
	return Join(l, tail)
}

// Report returns the characters in the inclusive range [start, end].
// The empty range end == start-1 is allowed for start in [0, Length()].
// Returns "" and false if the range does not lie within the rope; no partial
// text is ever returned.
func (r *Rope) Report(start, end int) (string, bool) {
	var sb strings.Builder
	if start >= 0 && end >= start && end < r.Length() {
		sb.Grow(end - start + 1)
	}
	if !r.report(&sb, start, end) {
		return "", false
	}
	return sb.String(), true
}

// report appends the range to sb, returning false on any miss.
func (r *Rope) report(sb *strings.Builder, start, end int) bool {
	if r.leaf != nil {
		s, ok := r.leaf.Report(start, end)
		if !ok {
			return false
		}
		sb.WriteString(s)
		return true
	}

	node := r.branch()
	switch {
	case end < node.weight:
		return node.mustLeft().report(sb, start, end)
	case start >= node.weight:
		return node.mustRight().report(sb, start-node.weight, end-node.weight)
	default:
		return node.mustLeft().report(sb, start, node.weight-1) &&
			node.mustRight().report(sb, 0, end-node.weight)
	}
}

// String returns the full text of the rope.
// Use sparingly for large ropes.
func (r *Rope) String() string {
	var sb strings.Builder
	sb.Grow(r.Length())
	r.Leaves(func(l *Leaf) bool {
		for _, c := range l.runes() {
			sb.WriteRune(c)
		}
		return true
	})
	return sb.String()
}
