package rope

import "iter"

// Iterator is a single-pass cursor over the characters of a rope.
// It is not restartable; create a new one with Iter to walk again.
type Iterator struct {
	rope *Rope
	pos  int
	done bool
}

// Iter returns an iterator positioned at the first character.
func (r *Rope) Iter() *Iterator {
	return &Iterator{rope: r}
}

// Next returns the character at the current position and advances.
// Returns 0 and false once the end is reached, and on every call after that.
func (it *Iterator) Next() (rune, bool) {
	if it.done {
		return 0, false
	}
	c, ok := it.rope.Index(it.pos)
	if !ok {
		it.done = true
		return 0, false
	}
	it.pos++
	return c, true
}

// Pos returns the index of the character the next call to Next will return.
func (it *Iterator) Pos() int {
	return it.pos
}

// All returns a sequence of (index, character) pairs in order.
func (r *Rope) All() iter.Seq2[int, rune] {
	return func(yield func(int, rune) bool) {
		it := r.Iter()
		for {
			pos := it.Pos()
			c, ok := it.Next()
			if !ok || !yield(pos, c) {
				return
			}
		}
	}
}

// Leaves calls fn on each leaf from left to right, including empty leaves,
// until fn returns false. The walk uses an explicit stack, so tree depth does
// not grow the goroutine stack.
func (r *Rope) Leaves(fn func(*Leaf) bool) {
	stack := make([]*Rope, 0, 16)
	stack = append(stack, r)

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.leaf != nil {
			if !fn(cur.leaf) {
				return
			}
			continue
		}

		node := cur.branch()
		// Push right first so left is visited first.
		stack = append(stack, node.mustRight(), node.mustLeft())
	}
}
