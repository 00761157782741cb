package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// luaModule is the global through which Lua programs reach the rope.
const luaModule = "rope"

// runLua executes a Lua program against the session's rope. Positions in the
// rope module are 0-based, matching script operations:
//
//	rope.insert(at, text)
//	rope.delete(start, end)     -- inclusive
//	rope.report(start, end)     -- string, or nil when out of range
//	rope.index(i)               -- one-character string, or nil
//	rope.split(at [, "right"])  -- keeps the left side unless "right"
//	rope.length()  rope.depth()  rope.text()  rope.rebalance()
//
// print output is captured as run output instead of going to stdout.
func (s *session) runLua(ctx context.Context, name, source string) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.runner.luaTimeout)
	defer cancel()

	L := newSandboxedState()
	defer L.Close()
	L.SetContext(ctx)

	b := &luaBridge{sess: s}
	b.install(L)

	defer func() {
		if r := recover(); r != nil {
			err = &LuaError{Script: name, Err: fmt.Errorf("lua panic: %v", r)}
		}
	}()

	if runErr := L.DoString(source); runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &LuaError{Script: name, Err: ctxErr}
		}
		if b.lastErr != nil && strings.Contains(runErr.Error(), b.lastErr.Error()) {
			return &LuaError{Script: name, Err: b.lastErr}
		}
		return &LuaError{Script: name, Err: runErr}
	}
	return nil
}

// newSandboxedState creates a Lua state with only the base, table, string and
// math libraries, and without the functions that load code from disk or
// strings.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// luaBridge exposes the session's rope to a Lua state.
type luaBridge struct {
	sess *session

	// lastErr is the most recent operation error raised into Lua, so the Go
	// error survives when the program does not catch it.
	lastErr error
}

func (b *luaBridge) install(L *lua.LState) {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"insert":    b.insert,
		"delete":    b.delete,
		"report":    b.report,
		"index":     b.index,
		"split":     b.split,
		"length":    b.length,
		"depth":     b.depth,
		"text":      b.text,
		"rebalance": b.rebalance,
	})
	L.SetGlobal(luaModule, mod)
	L.SetGlobal("print", L.NewFunction(b.print))
}

// do applies op, raising a Lua error on failure.
func (b *luaBridge) do(L *lua.LState, op Op) {
	if err := b.sess.apply(op); err != nil {
		b.lastErr = err
		L.RaiseError("%s", err.Error())
	}
}

// lastOutput returns the text the most recent operation produced.
func (b *luaBridge) lastOutput() string {
	outs := b.sess.res.Outputs
	return outs[len(outs)-1].Text
}

func (b *luaBridge) insert(L *lua.LState) int {
	b.do(L, Op{Kind: KindInsert, At: L.CheckInt(1), Text: L.CheckString(2)})
	return 0
}

func (b *luaBridge) delete(L *lua.LState) int {
	b.do(L, Op{Kind: KindDelete, Start: L.CheckInt(1), End: L.CheckInt(2)})
	return 0
}

func (b *luaBridge) report(L *lua.LState) int {
	op := Op{Kind: KindReport, Start: L.CheckInt(1), End: L.CheckInt(2)}
	if err := b.sess.apply(op); err != nil {
		if errors.Is(err, ErrReportMiss) {
			L.Push(lua.LNil)
			return 1
		}
		b.lastErr = err
		L.RaiseError("%s", err.Error())
	}
	L.Push(lua.LString(b.lastOutput()))
	return 1
}

func (b *luaBridge) index(L *lua.LState) int {
	i := L.CheckInt(1)
	if i < 0 || i >= b.sess.rope.Length() {
		L.Push(lua.LNil)
		return 1
	}
	b.do(L, Op{Kind: KindIndex, At: i})
	L.Push(lua.LString(b.lastOutput()))
	return 1
}

func (b *luaBridge) split(L *lua.LState) int {
	op := Op{Kind: KindSplit, At: L.CheckInt(1), Keep: L.OptString(2, KeepLeft)}
	if err := op.validate(); err != nil {
		L.ArgError(2, err.Error())
	}
	b.do(L, op)
	return 0
}

func (b *luaBridge) rebalance(L *lua.LState) int {
	b.do(L, Op{Kind: KindRebalance})
	return 0
}

func (b *luaBridge) length(L *lua.LState) int {
	L.Push(lua.LNumber(b.sess.rope.Length()))
	return 1
}

func (b *luaBridge) depth(L *lua.LState) int {
	L.Push(lua.LNumber(b.sess.rope.Depth()))
	return 1
}

func (b *luaBridge) text(L *lua.LState) int {
	L.Push(lua.LString(b.sess.rope.String()))
	return 1
}

func (b *luaBridge) print(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	b.sess.res.Outputs = append(b.sess.res.Outputs, Output{
		Index: b.sess.res.Applied,
		Kind:  KindPrint,
		Text:  strings.Join(parts, "\t"),
	})
	return 0
}
