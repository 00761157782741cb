package script

import (
	"errors"
	"fmt"
)

// Kind names an operation.
type Kind string

// Operation kinds.
const (
	KindInsert    Kind = "insert"
	KindDelete    Kind = "delete"
	KindReport    Kind = "report"
	KindIndex     Kind = "index"
	KindSplit     Kind = "split"
	KindRebalance Kind = "rebalance"
)

// Known reports whether the runner implements k.
func (k Kind) Known() bool {
	switch k {
	case KindInsert, KindDelete, KindReport, KindIndex, KindSplit, KindRebalance:
		return true
	}
	return false
}

// Which side of a split a script keeps.
const (
	KeepLeft  = "left"
	KeepRight = "right"
)

// Op is a single operation. Fields unused by a kind are ignored:
//
//	insert     Text before At
//	delete     inclusive range [Start, End]
//	report     inclusive range [Start, End]
//	index      character at At
//	split      at At, keeping the Keep side (left by default)
//	rebalance  no arguments
type Op struct {
	Kind  Kind   `yaml:"op" toml:"op"`
	At    int    `yaml:"at,omitempty" toml:"at,omitempty"`
	Start int    `yaml:"start,omitempty" toml:"start,omitempty"`
	End   int    `yaml:"end,omitempty" toml:"end,omitempty"`
	Text  string `yaml:"text,omitempty" toml:"text,omitempty"`
	Keep  string `yaml:"keep,omitempty" toml:"keep,omitempty"`
}

// Script is a named edit sequence.
type Script struct {
	// Name identifies the script in logs and metrics.
	Name string `yaml:"name" toml:"name"`

	// Source is the initial text when no input file is given.
	Source string `yaml:"source,omitempty" toml:"source,omitempty"`

	// Input is a file holding the initial text, relative to the script.
	Input string `yaml:"input,omitempty" toml:"input,omitempty"`

	// Ops run in order.
	Ops []Op `yaml:"ops,omitempty" toml:"ops,omitempty"`

	// Lua is a program run after Ops.
	Lua string `yaml:"lua,omitempty" toml:"lua,omitempty"`
}

// Validate checks every operation for a known kind and usable arguments.
// Range checks against the rope happen when the script runs.
func (s *Script) Validate() error {
	var errs []error
	for i, op := range s.Ops {
		if err := op.validate(); err != nil {
			errs = append(errs, &OpError{Index: i, Kind: op.Kind, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (op Op) validate() error {
	if !op.Kind.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Kind)
	}
	if op.Kind == KindSplit && op.Keep != "" && op.Keep != KeepLeft && op.Keep != KeepRight {
		return fmt.Errorf("%w: keep must be %q or %q, got %q", ErrInvalidOp, KeepLeft, KeepRight, op.Keep)
	}
	return nil
}
