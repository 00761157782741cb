// Package script applies recorded edit sequences to a rope.
//
// A script names an initial text and an ordered list of operations:
//
//	name: greet
//	source: "Hello World"
//	ops:
//	  - {op: insert, at: 5, text: ","}
//	  - {op: report, start: 0, end: 5}
//
// Scripts are read from YAML or TOML. A script may also carry a Lua program,
// either inline under the lua key or as a whole .lua file, which drives the
// rope through the sandboxed rope module after the listed operations run.
package script
