package script

import (
	"errors"
	"fmt"
)

// Errors returned while decoding or running scripts.
var (
	// ErrOffsetOutOfRange indicates an operation addressed a position outside the rope.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrReportMiss indicates a report range did not lie within the rope.
	ErrReportMiss = errors.New("report range not in rope")

	// ErrUnknownOp indicates an operation kind the runner does not implement.
	ErrUnknownOp = errors.New("unknown operation")

	// ErrInvalidOp indicates a known operation with bad arguments.
	ErrInvalidOp = errors.New("invalid operation")

	// ErrUnsupportedFormat indicates a script file extension with no decoder.
	ErrUnsupportedFormat = errors.New("unsupported script format")
)

// OpError records which operation of a script failed.
type OpError struct {
	Index int
	Kind  Kind
	Err   error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("op %d (%s): %v", e.Index, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}

// LuaError wraps a failure raised by a Lua program.
type LuaError struct {
	Script string
	Err    error
}

// Error implements the error interface.
func (e *LuaError) Error() string {
	return fmt.Sprintf("lua %s: %v", e.Script, e.Err)
}

// Unwrap returns the underlying error.
func (e *LuaError) Unwrap() error {
	return e.Err
}
