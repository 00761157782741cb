package script

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/strand/internal/logging"
	"github.com/dshills/strand/internal/rope"
)

// Default runner settings.
const (
	DefaultAutoRebalanceDepth = 64
	DefaultLuaTimeout         = 5 * time.Second
)

// KindPrint marks output written by a Lua program's print calls.
const KindPrint Kind = "print"

// Output is text produced by a run, in the order it was produced.
type Output struct {
	// Index is the position of the producing operation among all
	// operations applied in the run.
	Index int
	Kind  Kind
	Text  string
}

// Result is the outcome of a run. On failure it holds the state reached
// before the failing operation.
type Result struct {
	RunID      string
	Script     string
	Rope       *rope.Rope
	Outputs    []Output
	Applied    int
	Rebalances int
	Elapsed    time.Duration
}

// Text returns the final text of the rope.
func (r *Result) Text() string {
	return r.Rope.String()
}

// Runner applies scripts to ropes. A Runner is safe for concurrent use;
// each run works on its own rope.
type Runner struct {
	logger             *logging.Logger
	metrics            *Metrics
	autoRebalanceDepth int
	luaTimeout         time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics reports every run to m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithAutoRebalance rebalances the rope whenever an operation leaves it
// deeper than depth. Zero disables automatic rebalancing.
func WithAutoRebalance(depth int) Option {
	return func(r *Runner) {
		if depth >= 0 {
			r.autoRebalanceDepth = depth
		}
	}
}

// WithLuaTimeout bounds the run time of a script's Lua program.
func WithLuaTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.luaTimeout = d
		}
	}
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:             logging.Nop(),
		autoRebalanceDepth: DefaultAutoRebalanceDepth,
		luaTimeout:         DefaultLuaTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies s to initial, or to a rope built from s.Source when initial is
// nil. The first failing operation stops the run; its error is an *OpError
// and the returned Result holds everything applied before it.
func (r *Runner) Run(ctx context.Context, initial *rope.Rope, s *Script) (*Result, error) {
	if initial == nil {
		initial = rope.New(s.Source)
	}

	res := &Result{RunID: uuid.NewString(), Script: s.Name}
	sess := &session{
		runner: r,
		log: r.logger.WithComponent("script").WithFields(map[string]any{
			"run":    res.RunID,
			"script": s.Name,
		}),
		rope: initial,
		res:  res,
	}

	started := time.Now()
	sess.log.Debug("run started, %d chars, %d ops", initial.Length(), len(s.Ops))
	err := sess.run(ctx, s)
	res.Rope = sess.rope
	res.Elapsed = time.Since(started)

	r.metrics.observeRun(sess.rope.Length(), sess.rope.Depth(), err)
	if err != nil {
		sess.log.Error("run failed after %d ops: %v", res.Applied, err)
		return res, err
	}
	sess.log.Info("run complete: %d ops, %d chars, %d rebalances in %s",
		res.Applied, sess.rope.Length(), res.Rebalances, res.Elapsed)
	return res, nil
}

// session is the mutable state of one run.
type session struct {
	runner *Runner
	log    *logging.Logger
	rope   *rope.Rope
	res    *Result

	// depthBound is an upper bound on the rope's depth, kept from the edit
	// kinds applied since the tree was last measured. Only when it passes the
	// auto-rebalance limit is the tree walked.
	depthBound  int
	depthChecks int
}

func (s *session) run(ctx context.Context, sc *Script) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	if s.runner.autoRebalanceDepth > 0 {
		s.depthBound = s.measureDepth()
	}

	for _, op := range sc.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.apply(op); err != nil {
			return err
		}
	}

	if sc.Lua != "" {
		return s.runLua(ctx, sc.Name, sc.Lua)
	}
	return nil
}

// apply runs one operation, records its output and metrics, and rebalances
// if the tree grew too deep.
func (s *session) apply(op Op) error {
	idx := s.res.Applied
	start := time.Now()
	text, hasOutput, err := s.step(op)
	s.runner.metrics.observeOp(op.Kind, time.Since(start), err)
	if err != nil {
		s.log.Warn("op %d (%s) failed: %v", idx, op.Kind, err)
		return &OpError{Index: idx, Kind: op.Kind, Err: err}
	}

	s.res.Applied++
	if hasOutput {
		s.res.Outputs = append(s.res.Outputs, Output{Index: idx, Kind: op.Kind, Text: text})
	}
	if s.log.Enabled(logging.LevelDebug) {
		s.log.Debug("op %d (%s) applied, length %d", idx, op.Kind, s.rope.Length())
	}

	s.depthBound += depthGrowth(op.Kind)
	s.autoRebalance()
	return nil
}

// depthGrowth is how many levels an operation can add to a tree of depth d.
// Insert joins twice above the split halves and delete once; a split result
// is never deeper than the rope it came from.
func depthGrowth(k Kind) int {
	switch k {
	case KindInsert:
		return 2
	case KindDelete:
		return 1
	default:
		return 0
	}
}

func (s *session) step(op Op) (string, bool, error) {
	n := s.rope.Length()

	switch op.Kind {
	case KindInsert:
		if op.At < 0 || op.At > n {
			return "", false, fmt.Errorf("%w: insert at %d, length %d", ErrOffsetOutOfRange, op.At, n)
		}
		s.rope = s.rope.Insert(op.Text, op.At)
		return "", false, nil

	case KindDelete:
		if op.Start < 0 || op.End < op.Start-1 || op.End >= n {
			return "", false, fmt.Errorf("%w: delete [%d, %d], length %d", ErrOffsetOutOfRange, op.Start, op.End, n)
		}
		s.rope = s.rope.Delete(op.Start, op.End)
		return "", false, nil

	case KindReport:
		text, ok := s.rope.Report(op.Start, op.End)
		if !ok {
			return "", false, fmt.Errorf("%w: [%d, %d], length %d", ErrReportMiss, op.Start, op.End, n)
		}
		return text, true, nil

	case KindIndex:
		c, ok := s.rope.Index(op.At)
		if !ok {
			return "", false, fmt.Errorf("%w: index %d, length %d", ErrOffsetOutOfRange, op.At, n)
		}
		return string(c), true, nil

	case KindSplit:
		if op.At < 0 || op.At > n {
			return "", false, fmt.Errorf("%w: split at %d, length %d", ErrOffsetOutOfRange, op.At, n)
		}
		left, right := s.rope.Split(op.At)
		if op.Keep == KeepRight {
			s.rope = right
		} else {
			s.rope = left
		}
		return "", false, nil

	case KindRebalance:
		s.rebalance()
		return "", false, nil

	default:
		return "", false, fmt.Errorf("%w: %q", ErrUnknownOp, op.Kind)
	}
}

func (s *session) autoRebalance() {
	limit := s.runner.autoRebalanceDepth
	if limit <= 0 || s.depthBound <= limit {
		return
	}
	depth := s.measureDepth()
	s.depthBound = depth
	if depth > limit {
		s.log.Debug("depth %d exceeds %d, rebalancing", depth, limit)
		s.rebalance()
	}
}

func (s *session) rebalance() {
	s.rope = s.rope.Rebalance()
	s.res.Rebalances++
	s.runner.metrics.observeRebalance()
	if s.runner.autoRebalanceDepth > 0 {
		s.depthBound = s.measureDepth()
	}
}

func (s *session) measureDepth() int {
	s.depthChecks++
	return s.rope.Depth()
}
