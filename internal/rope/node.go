package rope

// Node is an internal rope branch. It owns both children and caches the
// character count of its left subtree.
type Node struct {
	weight int // left.Length() at construction time
	left   *Rope
	right  *Rope
}

// Weight returns the number of characters in the left subtree.
func (n *Node) Weight() int {
	return n.weight
}

// Left returns the left child.
func (n *Node) Left() *Rope {
	return n.mustLeft()
}

// Right returns the right child.
func (n *Node) Right() *Rope {
	return n.mustRight()
}

func (n *Node) mustLeft() *Rope {
	if n.left == nil {
		invariant("node missing left child")
	}
	return n.left
}

func (n *Node) mustRight() *Rope {
	if n.right == nil {
		invariant("node missing right child")
	}
	return n.right
}

// Join creates a rope whose content is left followed by right. Both operands
// become children of the new node; they are shared, not copied.
func Join(left, right *Rope) *Rope {
	if left == nil || right == nil {
		invariant("join requires two ropes")
	}
	return &Rope{node: &Node{
		weight: left.Length(),
		left:   left,
		right:  right,
	}}
}
