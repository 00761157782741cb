// Package rope provides a binary rope for holding large, frequently edited text.
//
// A rope is a binary tree whose leaves are views into immutable rune buffers and
// whose internal nodes cache a weight: the number of characters in their left
// subtree. Edits never touch leaf storage; they are realized by splitting the
// tree at an offset and joining the pieces back together under new nodes.
//
// Characters are Unicode code points. Every offset and length in this package
// counts runes, not bytes.
//
// Ropes are immutable once built. Split, Join, Insert and Delete return new
// ropes that share unchanged subtrees and leaf buffers with their operands, so
// an older rope stays valid and can be read after it has been edited.
//
// Basic usage:
//
//	r := rope.New("Hello, World!")
//	r = r.Insert(" Cruel", 6)      // "Hello, Cruel World!"
//	r = r.Delete(0, 6)             // "Cruel World!"
//	s, ok := r.Report(0, 4)        // "Cruel", true
//
// The tree is not self-balancing. Long edit sequences can be folded back into a
// shallow tree with Rebalance.
package rope
