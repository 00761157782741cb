package rope

import (
	"errors"
	"strings"
	"testing"
	"testing/quick"
)

// buildChain builds a rope from pieces by repeated Join, left to right,
// producing a left-leaning tree several levels deep.
func buildChain(pieces ...string) *Rope {
	r := New(pieces[0])
	for _, p := range pieces[1:] {
		r = Join(r, New(p))
	}
	return r
}

// buildRightChain builds a right-leaning tree from pieces.
func buildRightChain(pieces ...string) *Rope {
	r := New(pieces[len(pieces)-1])
	for i := len(pieces) - 2; i >= 0; i-- {
		r = Join(New(pieces[i]), r)
	}
	return r
}

// fullReport reports the whole rope.
func fullReport(t *testing.T, r *Rope) string {
	t.Helper()
	s, ok := r.Report(0, r.Length()-1)
	if !ok {
		t.Fatalf("full-range Report(0, %d) missed", r.Length()-1)
	}
	return s
}

func mustValidate(t *testing.T, r *Rope) {
	t.Helper()
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestNew(t *testing.T) {
	r := New("Hello, World!")
	if !r.IsLeaf() {
		t.Error("New rope should be a leaf")
	}
	if r.IsNode() {
		t.Error("New rope should not be a node")
	}
	if r.Length() != 13 {
		t.Errorf("Length() = %d, want 13", r.Length())
	}
	if r.Weight() != 13 {
		t.Errorf("Weight() = %d, want 13", r.Weight())
	}
}

func TestEmpty(t *testing.T) {
	r := Empty()
	if r.Length() != 0 {
		t.Errorf("Length() = %d, want 0", r.Length())
	}
	if r.String() != "" {
		t.Errorf("String() = %q, want empty", r.String())
	}
	got, ok := r.Report(0, -1)
	if !ok || got != "" {
		t.Errorf("Report(0, -1) = (%q, %v), want (\"\", true)", got, ok)
	}
	if _, ok := r.Index(0); ok {
		t.Error("Index(0) on empty rope should miss")
	}
}

func TestIndexScenario(t *testing.T) {
	r := New("Hello, World!")
	tests := []struct {
		i    int
		want rune
	}{
		{0, 'H'},
		{1, 'e'},
		{3, 'l'},
		{12, '!'},
	}
	for _, tt := range tests {
		got, ok := r.Index(tt.i)
		if !ok || got != tt.want {
			t.Errorf("Index(%d) = (%q, %v), want (%q, true)", tt.i, got, ok, tt.want)
		}
	}
	if _, ok := r.Index(13); ok {
		t.Error("Index(13) should miss")
	}
}

func TestJoin(t *testing.T) {
	r := Join(New("Hello,"), New(" World!"))
	if !r.IsNode() {
		t.Fatal("Join should produce a node")
	}
	if r.Weight() != 6 {
		t.Errorf("Weight() = %d, want 6", r.Weight())
	}
	if r.Length() != 13 {
		t.Errorf("Length() = %d, want 13", r.Length())
	}

	for i, want := range "Hello, World!" {
		got, ok := r.Index(i)
		if !ok || got != want {
			t.Errorf("Index(%d) = (%q, %v), want (%q, true)", i, got, ok, want)
		}
	}
	if _, ok := r.Index(13); ok {
		t.Error("Index(13) should miss")
	}
	mustValidate(t, r)
}

func TestIndexWeightBoundary(t *testing.T) {
	// Index == weight belongs to the right subtree.
	r := Join(New("ab"), New("cd"))
	got, ok := r.Index(2)
	if !ok || got != 'c' {
		t.Errorf("Index(2) = (%q, %v), want ('c', true)", got, ok)
	}
	got, ok = r.Index(1)
	if !ok || got != 'b' {
		t.Errorf("Index(1) = (%q, %v), want ('b', true)", got, ok)
	}
}

func TestSplitScenario(t *testing.T) {
	left, right := New("Hello, World!").Split(5)

	got, ok := left.Report(0, 4)
	if !ok || got != "Hello" {
		t.Errorf("left.Report(0, 4) = (%q, %v), want (\"Hello\", true)", got, ok)
	}
	got, ok = right.Report(0, 7)
	if !ok || got != ", World!" {
		t.Errorf("right.Report(0, 7) = (%q, %v), want (\", World!\", true)", got, ok)
	}
	if _, ok := right.Report(0, 8); ok {
		t.Error("right.Report(0, 8) should miss")
	}
}

func TestSplitMultiLevel(t *testing.T) {
	pieces := []string{"The ", "quick ", "brown ", "fox ", "jumps"}
	text := strings.Join(pieces, "")

	shapes := map[string]*Rope{
		"left-leaning":  buildChain(pieces...),
		"right-leaning": buildRightChain(pieces...),
		"balanced":      buildChain(pieces...).Rebalance(),
	}

	for name, r := range shapes {
		t.Run(name, func(t *testing.T) {
			for offset := 0; offset <= len(text); offset++ {
				l, rr := r.Split(offset)
				mustValidate(t, l)
				mustValidate(t, rr)

				if got := l.String(); got != text[:offset] {
					t.Fatalf("Split(%d) left = %q, want %q", offset, got, text[:offset])
				}
				if got := rr.String(); got != text[offset:] {
					t.Fatalf("Split(%d) right = %q, want %q", offset, got, text[offset:])
				}
				if l.Length()+rr.Length() != len(text) {
					t.Fatalf("Split(%d) lengths %d+%d != %d", offset, l.Length(), rr.Length(), len(text))
				}
			}
		})
	}
}

func TestSplitOutOfRange(t *testing.T) {
	r := buildChain("ab", "cd", "ef")

	l, rr := r.Split(-4)
	if l.Length() != 0 || rr.String() != "abcdef" {
		t.Errorf("Split(-4) = (%q, %q)", l.String(), rr.String())
	}
	l, rr = r.Split(100)
	if l.String() != "abcdef" || rr.Length() != 0 {
		t.Errorf("Split(100) = (%q, %q)", l.String(), rr.String())
	}
}

func TestSplitKeepsOriginal(t *testing.T) {
	r := buildChain("Hello", ", ", "World", "!")
	r.Split(7)
	r.Insert("xyz", 3)
	r.Delete(0, 4)
	if got := r.String(); got != "Hello, World!" {
		t.Errorf("original rope changed to %q", got)
	}
}

func TestReport(t *testing.T) {
	r := buildChain("Hel", "lo, ", "Wor", "ld!")
	text := "Hello, World!"

	tests := []struct {
		name       string
		start, end int
		ok         bool
	}{
		{"full", 0, 12, true},
		{"inside first leaf", 1, 2, true},
		{"spanning all", 1, 11, true},
		{"inside right subtree", 7, 9, true},
		{"at a weight boundary", 3, 3, true},
		{"last char", 12, 12, true},
		{"empty", 4, 3, true},
		{"end past rope", 0, 13, false},
		{"start past rope", 14, 16, false},
		{"negative start", -1, 4, false},
		{"inverted", 6, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Report(tt.start, tt.end)
			if ok != tt.ok {
				t.Fatalf("Report(%d, %d) ok = %v, want %v", tt.start, tt.end, ok, tt.ok)
			}
			want := ""
			if ok {
				want = text[tt.start : tt.end+1]
			}
			if got != want {
				t.Errorf("Report(%d, %d) = %q, want %q", tt.start, tt.end, got, want)
			}
		})
	}
}

func TestReportOriginalDraftCase(t *testing.T) {
	r := New("Hello, World!")
	got, ok := r.Report(1, 5)
	if !ok || got != "ello," {
		t.Errorf("Report(1, 5) = (%q, %v), want (\"ello,\", true)", got, ok)
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name     string
		rope     *Rope
		text     string
		offset   int
		expected string
	}{
		{"scenario", New("Hello, World!"), " Cruel", 6, "Hello, Cruel World!"},
		{"at start", New("world"), "hello ", 0, "hello world"},
		{"at end", New("hello"), " world", 5, "hello world"},
		{"into empty", Empty(), "hello", 0, "hello"},
		{"empty string", New("hello"), "", 3, "hello"},
		{"unicode", New("世界"), "!", 1, "世!界"},
		{"into node", buildChain("ab", "cd", "ef"), "XY", 3, "abcXYdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.rope.Insert(tt.text, tt.offset)
			mustValidate(t, r)
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInsertScenarioReport(t *testing.T) {
	r := New("Hello, World!").Insert(" Cruel", 6)
	got, ok := r.Report(0, 18)
	if !ok || got != "Hello, Cruel World!" {
		t.Errorf("Report(0, 18) = (%q, %v), want (\"Hello, Cruel World!\", true)", got, ok)
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name       string
		rope       *Rope
		start, end int
		expected   string
	}{
		{"scenario", New("Hello, World!"), 2, 4, "He, World!"},
		{"from start", New("hello world"), 0, 5, "world"},
		{"to end", New("hello world"), 5, 10, "hello"},
		{"single", New("hello"), 1, 1, "hllo"},
		{"all", New("hello"), 0, 4, ""},
		{"inverted range", New("hello"), 3, 2, "hello"},
		{"across leaves", buildChain("ab", "cd", "ef"), 1, 4, "af"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.rope.Delete(tt.start, tt.end)
			mustValidate(t, r)
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDeleteScenarioReport(t *testing.T) {
	r := New("Hello, World!").Delete(2, 4)
	got, ok := r.Report(0, 9)
	if !ok || got != "He, World!" {
		t.Errorf("Report(0, 9) = (%q, %v), want (\"He, World!\", true)", got, ok)
	}
}

func TestEditSequence(t *testing.T) {
	r := New("")
	model := []rune{}

	edits := []struct {
		insert string
		at     int
		delete [2]int
	}{
		{insert: "hello", at: 0},
		{insert: " world", at: 5},
		{insert: "big ", at: 6},
		{delete: [2]int{0, 0}},
		{insert: "H", at: 0},
		{delete: [2]int{6, 9}},
		{insert: "!", at: 11},
	}

	for i, e := range edits {
		if e.insert != "" {
			r = r.Insert(e.insert, e.at)
			ins := []rune(e.insert)
			model = append(model[:e.at], append(ins, model[e.at:]...)...)
		} else {
			r = r.Delete(e.delete[0], e.delete[1])
			model = append(model[:e.delete[0]], model[e.delete[1]+1:]...)
		}
		mustValidate(t, r)
		if got := r.String(); got != string(model) {
			t.Fatalf("edit %d: got %q, want %q", i, got, string(model))
		}
	}
	if got := fullReport(t, r); got != "Hello world!" {
		t.Errorf("final = %q, want \"Hello world!\"", got)
	}
}

func TestBrokenInvariantPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func(r *Rope)
	}{
		{"length", func(r *Rope) { r.Length() }},
		{"split", func(r *Rope) { r.Split(5) }},
		{"index", func(r *Rope) { r.Index(5) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := &Rope{node: &Node{weight: 2, left: New("ab")}}
			defer func() {
				rec := recover()
				err, ok := rec.(error)
				if !ok || !errors.Is(err, ErrBrokenInvariant) {
					t.Errorf("recovered %v, want ErrBrokenInvariant", rec)
				}
			}()
			tt.fn(broken)
		})
	}
}

func TestJoinNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Join with nil operand should panic")
		}
	}()
	Join(New("a"), nil)
}

func TestLengthProperty(t *testing.T) {
	f := func(s string) bool {
		return New(s).Length() == len([]rune(s))
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSplitJoinRoundTripProperty(t *testing.T) {
	f := func(a, b, c string, offset uint) bool {
		r := buildChain(a, b, c)
		text := []rune(a + b + c)
		off := int(offset % uint(len(text)+1))

		l, rr := r.Split(off)
		ls, lok := l.Report(0, l.Length()-1)
		rs, rok := rr.Report(0, rr.Length()-1)
		if !lok || !rok {
			return false
		}
		return ls+rs == string(text) && ls == string(text[:off])
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestIndexProperty(t *testing.T) {
	f := func(a, b string) bool {
		r := Join(New(a), New(b))
		text := []rune(a + b)
		for i, want := range text {
			got, ok := r.Index(i)
			if !ok || got != want {
				return false
			}
		}
		_, ok := r.Index(len(text))
		return !ok
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestReportProperty(t *testing.T) {
	f := func(a, b, c string, x, y uint) bool {
		r := buildRightChain(a, b, c)
		text := []rune(a + b + c)
		if len(text) == 0 {
			_, ok := r.Report(0, 0)
			return !ok
		}
		start := int(x % uint(len(text)))
		end := start + int(y%uint(len(text)-start))

		got, ok := r.Report(start, end)
		if !ok || got != string(text[start:end+1]) {
			return false
		}
		_, ok = r.Report(start, len(text))
		return !ok
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestInsertDeleteProperty(t *testing.T) {
	f := func(base, ins string, at, x, y uint) bool {
		text := []rune(base)
		pos := int(at % uint(len(text)+1))

		r := New(base).Insert(ins, pos)
		want := string(text[:pos]) + ins + string(text[pos:])
		if got, _ := r.Report(0, r.Length()-1); got != want {
			return false
		}

		all := []rune(want)
		if len(all) == 0 {
			return true
		}
		start := int(x % uint(len(all)))
		end := start + int(y%uint(len(all)-start))
		r = r.Delete(start, end)
		want = string(all[:start]) + string(all[end+1:])
		got, ok := r.Report(0, r.Length()-1)
		return ok && got == want
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
