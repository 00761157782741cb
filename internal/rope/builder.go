package rope

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// Leaf sizes for ropes built from a stream, in characters.
const (
	// DefaultChunkSize is used when no chunk size is given.
	DefaultChunkSize = 1024

	// MaxChunkSize is the largest leaf a Builder produces. Larger requests
	// are clamped to it.
	MaxChunkSize = 1 << 20

	// pendingPrealloc bounds the up-front allocation of the pending buffer;
	// bigger chunks grow it as text arrives.
	pendingPrealloc = 4096
)

// Builder provides incremental construction of a rope. Text is buffered and cut
// into leaves of ChunkSize characters; Build joins them into a balanced tree.
type Builder struct {
	chunkSize int
	leaves    []*Rope
	pending   []rune
	partial   []byte // incomplete UTF-8 sequence carried between Writes
	total     int
}

// NewBuilder creates a builder producing leaves of chunkSize characters.
// A non-positive chunkSize selects DefaultChunkSize; one above MaxChunkSize
// is clamped to MaxChunkSize.
func NewBuilder(chunkSize int) *Builder {
	switch {
	case chunkSize <= 0:
		chunkSize = DefaultChunkSize
	case chunkSize > MaxChunkSize:
		chunkSize = MaxChunkSize
	}
	return &Builder{
		chunkSize: chunkSize,
		pending:   newPending(chunkSize),
	}
}

func newPending(chunkSize int) []rune {
	return make([]rune, 0, min(chunkSize, pendingPrealloc))
}

// WriteString appends a string to the builder.
func (b *Builder) WriteString(s string) (int, error) {
	for _, c := range s {
		b.appendRune(c)
	}
	return len(s), nil
}

// WriteRune appends a single rune.
func (b *Builder) WriteRune(c rune) (int, error) {
	b.appendRune(c)
	return utf8.RuneLen(c), nil
}

// Write implements io.Writer. A multi-byte sequence split across two writes is
// held back until it is complete.
func (b *Builder) Write(p []byte) (int, error) {
	data := p
	if len(b.partial) > 0 {
		data = append(b.partial, p...)
		b.partial = nil
	}

	for len(data) > 0 {
		if !utf8.FullRune(data) {
			b.partial = append([]byte(nil), data...)
			break
		}
		c, size := utf8.DecodeRune(data)
		b.appendRune(c)
		data = data[size:]
	}
	return len(p), nil
}

// Len returns the number of characters written so far.
func (b *Builder) Len() int {
	return b.total
}

func (b *Builder) appendRune(c rune) {
	b.pending = append(b.pending, c)
	b.total++
	if len(b.pending) >= b.chunkSize {
		b.flush()
	}
}

// flush turns the pending runes into a leaf that owns its own buffer.
func (b *Builder) flush() {
	if len(b.pending) == 0 {
		return
	}
	b.leaves = append(b.leaves, &Rope{leaf: leafFromRunes(b.pending)})
	b.pending = newPending(b.chunkSize)
}

// Build returns the rope built so far. A trailing incomplete UTF-8 sequence
// becomes utf8.RuneError. The builder can keep being written to afterwards.
func (b *Builder) Build() *Rope {
	if len(b.partial) > 0 {
		b.partial = nil
		b.appendRune(utf8.RuneError)
	}
	b.flush()

	leaves := make([]*Rope, len(b.leaves))
	copy(leaves, b.leaves)
	return buildBalanced(leaves)
}

// FromReader builds a rope from r using DefaultChunkSize leaves.
func FromReader(r io.Reader) (*Rope, error) {
	return FromReaderSize(r, DefaultChunkSize)
}

// FromReaderSize builds a rope from r using leaves of chunkSize characters.
func FromReaderSize(r io.Reader, chunkSize int) (*Rope, error) {
	b := NewBuilder(chunkSize)
	if _, err := io.Copy(b, bufio.NewReaderSize(r, 64*1024)); err != nil {
		return nil, err
	}
	return b.Build(), nil
}
