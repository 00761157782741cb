package rope

import (
	"errors"
	"math"
	"strings"
	"testing"
	"testing/iotest"
)

func TestBuilder(t *testing.T) {
	b := NewBuilder(4)
	b.WriteString("hello ")
	b.WriteRune('w')
	b.Write([]byte("orld"))

	if b.Len() != 11 {
		t.Errorf("Len() = %d, want 11", b.Len())
	}

	r := b.Build()
	mustValidate(t, r)
	if got := r.String(); got != "hello world" {
		t.Errorf("Build() = %q, want \"hello world\"", got)
	}
	if leaves := r.LeafCount(); leaves != 3 {
		t.Errorf("LeafCount() = %d, want 3", leaves)
	}
}

func TestBuilderEmpty(t *testing.T) {
	r := NewBuilder(0).Build()
	if r.Length() != 0 {
		t.Errorf("Length() = %d, want 0", r.Length())
	}
}

func TestBuilderSplitRune(t *testing.T) {
	b := NewBuilder(2)
	data := []byte("a世b")
	// Feed the 3-byte rune one byte at a time.
	for i := range data {
		b.Write(data[i : i+1])
	}
	if got := b.Build().String(); got != "a世b" {
		t.Errorf("Build() = %q, want \"a世b\"", got)
	}
}

func TestBuilderTruncatedRune(t *testing.T) {
	b := NewBuilder(8)
	b.Write([]byte("ab\xe4\xb8"))
	if got := b.Build().String(); got != "ab\uFFFD" {
		t.Errorf("Build() = %q, want \"ab\\uFFFD\"", got)
	}
}

func TestBuilderContinuesAfterBuild(t *testing.T) {
	b := NewBuilder(3)
	b.WriteString("abcd")
	first := b.Build()
	b.WriteString("ef")
	second := b.Build()

	if first.String() != "abcd" {
		t.Errorf("first = %q, want \"abcd\"", first.String())
	}
	if second.String() != "abcdef" {
		t.Errorf("second = %q, want \"abcdef\"", second.String())
	}
}

func TestFromReader(t *testing.T) {
	text := strings.Repeat("the quick brown fox ñ 日本\n", 500)

	r, err := FromReaderSize(iotest.OneByteReader(strings.NewReader(text)), 64)
	if err != nil {
		t.Fatalf("FromReaderSize: %v", err)
	}
	mustValidate(t, r)
	if r.String() != text {
		t.Error("content mismatch")
	}
	if r.Length() != len([]rune(text)) {
		t.Errorf("Length() = %d, want %d", r.Length(), len([]rune(text)))
	}
	if !r.Balanced(balancedDepth(r.LeafCount())) {
		t.Errorf("depth %d not balanced for %d leaves", r.Depth(), r.LeafCount())
	}
}

func TestFromReaderDefault(t *testing.T) {
	r, err := FromReader(strings.NewReader("Hello, World!"))
	if err != nil {
		t.Fatalf("FromReader: %v", err)
	}
	if got, ok := r.Report(7, 11); !ok || got != "World" {
		t.Errorf("Report(7, 11) = (%q, %v)", got, ok)
	}
}

func TestFromReaderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := FromReader(iotest.ErrReader(boom))
	if !errors.Is(err, boom) {
		t.Errorf("FromReader error = %v, want %v", err, boom)
	}
}

func TestFromReaderHugeChunkSize(t *testing.T) {
	r, err := FromReaderSize(strings.NewReader("hello"), math.MaxInt)
	if err != nil {
		t.Fatalf("FromReaderSize() error = %v", err)
	}
	if got := r.String(); got != "hello" {
		t.Errorf("String() = %q, want \"hello\"", got)
	}
	if r.LeafCount() != 1 {
		t.Errorf("LeafCount() = %d, want 1", r.LeafCount())
	}
}

func TestBuilderChunkSizeClamp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, DefaultChunkSize},
		{0, DefaultChunkSize},
		{16, 16},
		{MaxChunkSize, MaxChunkSize},
		{MaxChunkSize + 1, MaxChunkSize},
		{math.MaxInt, MaxChunkSize},
	}
	for _, tt := range tests {
		b := NewBuilder(tt.in)
		if b.chunkSize != tt.want {
			t.Errorf("NewBuilder(%d).chunkSize = %d, want %d", tt.in, b.chunkSize, tt.want)
		}
		if c := cap(b.pending); c > pendingPrealloc {
			t.Errorf("NewBuilder(%d) preallocated %d runes, want at most %d", tt.in, c, pendingPrealloc)
		}
	}
}

func TestBuilderLargeChunkGrows(t *testing.T) {
	b := NewBuilder(10000)
	text := strings.Repeat("xy", 7500)
	b.WriteString(text)
	r := b.Build()
	mustValidate(t, r)
	if got := r.String(); got != text {
		t.Errorf("Build() lost text: got %d chars, want %d", len(got), len(text))
	}
	if r.LeafCount() != 2 {
		t.Errorf("LeafCount() = %d, want 2", r.LeafCount())
	}
}
