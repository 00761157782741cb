package rope

import "math/bits"

// Stats holds structural metrics for a rope.
type Stats struct {
	// Length is the character count.
	Length int

	// Depth is the number of edges on the longest root-to-leaf path.
	// A single leaf has depth 0.
	Depth int

	// Leaves is the number of leaves, including empty ones.
	Leaves int

	// EmptyLeaves is the number of leaves holding no characters.
	EmptyLeaves int

	// Nodes is the number of internal nodes.
	Nodes int
}

// depthFrame is a stack entry for depth-first walks that track depth.
type depthFrame struct {
	rope  *Rope
	depth int
}

// Stats walks the whole tree and returns its metrics.
func (r *Rope) Stats() Stats {
	var s Stats
	stack := []depthFrame{{rope: r}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		s.Depth = max(s.Depth, f.depth)
		if f.rope.leaf != nil {
			s.Leaves++
			s.Length += f.rope.leaf.Weight()
			if f.rope.leaf.IsEmpty() {
				s.EmptyLeaves++
			}
			continue
		}

		node := f.rope.branch()
		s.Nodes++
		stack = append(stack,
			depthFrame{rope: node.mustRight(), depth: f.depth + 1},
			depthFrame{rope: node.mustLeft(), depth: f.depth + 1},
		)
	}
	return s
}

// Depth returns the height of the tree. A single leaf has depth 0.
func (r *Rope) Depth() int {
	return r.Stats().Depth
}

// LeafCount returns the number of leaves, including empty ones.
func (r *Rope) LeafCount() int {
	return r.Stats().Leaves
}

// Balanced reports whether the tree depth is at most maxDepth.
func (r *Rope) Balanced(maxDepth int) bool {
	return r.Depth() <= maxDepth
}

// Rebalance returns a rope with the same content built as a height-balanced
// tree over the non-empty leaves. Leaf buffers are reused, not copied.
// The result has depth ceil(log2(leaves)).
func (r *Rope) Rebalance() *Rope {
	var level []*Rope
	r.Leaves(func(l *Leaf) bool {
		if !l.IsEmpty() {
			level = append(level, &Rope{leaf: l})
		}
		return true
	})
	return buildBalanced(level)
}

// buildBalanced joins ropes pairwise, level by level, until one remains.
func buildBalanced(level []*Rope) *Rope {
	if len(level) == 0 {
		return Empty()
	}

	for len(level) > 1 {
		parents := make([]*Rope, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				parents = append(parents, level[i])
				continue
			}
			parents = append(parents, Join(level[i], level[i+1]))
		}
		level = parents
	}
	return level[0]
}

// balancedDepth returns the depth Rebalance produces for n leaves.
func balancedDepth(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Validate walks the tree and returns the first invariant violation found,
// wrapped in ErrBrokenInvariant, or nil for a well-formed rope.
func (r *Rope) Validate() error {
	if r == nil {
		return invariantError("rope is nil")
	}

	stack := []*Rope{r}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case cur.leaf != nil && cur.node != nil:
			return invariantError("rope is both leaf and node")
		case cur.leaf != nil:
			if err := cur.leaf.validate(); err != nil {
				return err
			}
			continue
		case cur.node == nil:
			return invariantError("rope is neither leaf nor node")
		}

		node := cur.node
		if node.left == nil {
			return invariantError("node missing left child")
		}
		if node.right == nil {
			return invariantError("node missing right child")
		}
		if err := node.left.Validate(); err != nil {
			return err
		}
		if got := node.left.Length(); got != node.weight {
			return invariantError("node weight %d, left subtree holds %d", node.weight, got)
		}
		stack = append(stack, node.right)
	}
	return nil
}
