package rope

// Leaf is a terminal rope node: an inclusive view [start, end] into an
// immutable rune buffer. Leaves produced by splitting share the buffer of the
// leaf they came from.
type Leaf struct {
	buf   []rune // never written after construction
	start int
	end   int // end == start-1 for an empty leaf
}

// NewLeaf creates a leaf spanning all of s.
func NewLeaf(s string) *Leaf {
	return leafFromRunes([]rune(s))
}

// leafFromRunes wraps buf without copying. The caller gives up buf.
func leafFromRunes(buf []rune) *Leaf {
	return &Leaf{
		buf:   buf,
		start: 0,
		end:   len(buf) - 1,
	}
}

// emptyLeaf returns a leaf holding no characters.
func emptyLeaf() *Leaf {
	return &Leaf{start: 0, end: -1}
}

// Weight returns the number of characters in the leaf.
func (l *Leaf) Weight() int {
	return l.end - l.start + 1
}

// IsEmpty returns true if the leaf holds no characters.
func (l *Leaf) IsEmpty() bool {
	return l.end < l.start
}

// Index returns the i-th character of the leaf.
// Returns 0 and false if i is out of range.
func (l *Leaf) Index(i int) (rune, bool) {
	if i < 0 || i >= l.Weight() {
		return 0, false
	}
	return l.buf[l.start+i], true
}

// Split splits the leaf at offset. The left leaf holds [0, offset) and the
// right leaf holds [offset, Weight()). Both halves share this leaf's buffer.
//
// An offset at or before the start yields (empty, full); an offset at or past
// the end yields (full, empty).
func (l *Leaf) Split(offset int) (*Leaf, *Leaf) {
	if offset <= 0 {
		return emptyLeaf(), l
	}
	if offset >= l.Weight() {
		return l, emptyLeaf()
	}

	mid := l.start + offset
	left := &Leaf{buf: l.buf, start: l.start, end: mid - 1}
	right := &Leaf{buf: l.buf, start: mid, end: l.end}
	return left, right
}

// Report returns the characters in the inclusive range [start, end], counted
// from the beginning of the leaf. The empty range end == start-1 is allowed for
// any start in [0, Weight()].
//
// A range the leaf cannot represent returns "" and false. That is a miss, not
// an error: node-level reports use it to reject out-of-range queries.
func (l *Leaf) Report(start, end int) (string, bool) {
	w := l.Weight()
	if start < 0 || start > w || end < start-1 || end >= w {
		return "", false
	}
	return string(l.buf[l.start+start : l.start+end+1]), true
}

// String returns the leaf's text.
func (l *Leaf) String() string {
	return string(l.runes())
}

// runes returns the leaf's view. The slice aliases shared storage and must
// not be modified.
func (l *Leaf) runes() []rune {
	if l.IsEmpty() {
		return nil
	}
	return l.buf[l.start : l.end+1]
}

// validate checks the leaf bounds against its buffer.
func (l *Leaf) validate() error {
	if l.start < 0 {
		return invariantError("leaf start %d is negative", l.start)
	}
	if l.end < l.start-1 {
		return invariantError("leaf end %d precedes start %d", l.end, l.start)
	}
	if l.end >= len(l.buf) {
		return invariantError("leaf end %d outside buffer of %d runes", l.end, len(l.buf))
	}
	return nil
}
