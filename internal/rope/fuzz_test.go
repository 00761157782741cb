package rope

import (
	"testing"
	"unicode/utf8"
)

// FuzzSplit checks the split/join round trip at every fuzzed offset.
func FuzzSplit(f *testing.F) {
	f.Add("Hello, World!", "", 5)
	f.Add("abc", "def", 3)
	f.Add("日本", "語", 1)
	f.Add("", "", 0)

	f.Fuzz(func(t *testing.T, a, b string, offset int) {
		if !utf8.ValidString(a) || !utf8.ValidString(b) {
			return
		}
		r := Join(New(a), New(b))
		text := []rune(a + b)

		if offset < 0 {
			offset = -offset
		}
		if offset < 0 {
			offset = 0
		}
		offset %= len(text) + 1

		l, rr := r.Split(offset)
		if err := l.Validate(); err != nil {
			t.Fatalf("left invalid: %v", err)
		}
		if err := rr.Validate(); err != nil {
			t.Fatalf("right invalid: %v", err)
		}
		if l.String() != string(text[:offset]) || rr.String() != string(text[offset:]) {
			t.Errorf("Split(%d) = (%q, %q)", offset, l.String(), rr.String())
		}
	})
}

// FuzzEdits applies an insert then a delete and compares with a rune slice.
func FuzzEdits(f *testing.F) {
	f.Add("Hello, World!", " Cruel", 6, 2, 4)
	f.Add("", "x", 0, 0, 0)
	f.Add("日本語", "!", 1, 0, 1)

	f.Fuzz(func(t *testing.T, base, ins string, at, start, end int) {
		if !utf8.ValidString(base) || !utf8.ValidString(ins) {
			return
		}
		model := []rune(base)
		if at < 0 || at > len(model) {
			return
		}

		r := New(base).Insert(ins, at)
		model = append(model[:at:at], append([]rune(ins), model[at:]...)...)
		if r.String() != string(model) {
			t.Fatalf("after insert: got %q, want %q", r.String(), string(model))
		}

		if start < 0 || end < start || end >= len(model) {
			return
		}
		r = r.Delete(start, end)
		model = append(model[:start:start], model[end+1:]...)
		if got, ok := r.Report(0, r.Length()-1); !ok || got != string(model) {
			t.Errorf("after delete: got (%q, %v), want %q", got, ok, string(model))
		}
		if err := r.Validate(); err != nil {
			t.Errorf("Validate() = %v", err)
		}
	})
}
