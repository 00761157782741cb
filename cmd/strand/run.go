package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/dshills/strand/internal/config/watcher"
	"github.com/dshills/strand/internal/rope"
	"github.com/dshills/strand/internal/script"
)

type runOptions struct {
	input   string
	watch   bool
	metrics bool
	quiet   bool
}

func newRunCommand(c *cli) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Apply an edit script and print its output and the final text",
		Long: `Apply an edit script to a text.

The initial text comes from --input, then the script's input key, then its
source key. Report and index results are printed one per line, followed by
the final text unless --quiet is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.run(ctx, cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "file holding the initial text")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "rerun whenever the script or input changes")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print run metrics in Prometheus text format")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print outputs only, not the final text")

	return cmd
}

func (c *cli) run(ctx context.Context, out io.Writer, path string, opts runOptions) error {
	var reg *prometheus.Registry
	runnerOpts := []script.Option{
		script.WithLogger(c.logger),
		script.WithAutoRebalance(c.cfg.Rope.AutoRebalanceDepth),
	}
	if opts.metrics || c.cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		m, err := script.NewMetrics(reg)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, script.WithMetrics(m))
	}
	runner := script.NewRunner(runnerOpts...)

	// once runs the script and returns the input file it used. If the script
	// cannot be loaded, prev is returned unchanged.
	once := func(prev string) (string, error) {
		s, err := script.LoadFile(path)
		if err != nil {
			return prev, err
		}
		input := opts.input
		if input == "" {
			input = s.Input
		}
		err = c.runOnce(ctx, out, runner, s, input, opts.quiet)
		if reg != nil {
			if mErr := writeMetrics(out, reg); mErr != nil {
				return input, mErr
			}
		}
		return input, err
	}

	input, err := once("")
	if !opts.watch {
		return err
	}
	if err != nil {
		c.logger.Error("%v", err)
	}
	return c.watchLoop(ctx, path, input, func(prev string) string {
		next, err := once(prev)
		if err != nil {
			c.logger.Error("%v", err)
		}
		return next
	})
}

func (c *cli) runOnce(ctx context.Context, out io.Writer, runner *script.Runner, s *script.Script, input string, quiet bool) error {
	var initial *rope.Rope
	if input != "" {
		r, err := c.loadRope(input)
		if err != nil {
			return err
		}
		initial = r
	}

	res, err := runner.Run(ctx, initial, s)
	for _, o := range res.Outputs {
		fmt.Fprintln(out, o.Text)
	}
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintln(out, res.Text())
	}
	return nil
}

func (c *cli) loadRope(path string) (*rope.Rope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return rope.FromReaderSize(f, c.cfg.Rope.ChunkSize)
}

// watchLoop reruns the script each time the script or input file changes,
// until ctx is canceled. rerun returns the input file the script now uses, so
// editing the script's input key moves the watch to the new file.
func (c *cli) watchLoop(ctx context.Context, path, input string, rerun func(prev string) string) error {
	w, err := watcher.New(
		watcher.WithDebounce(c.cfg.Debounce()),
		watcher.WithLogger(c.logger.WithComponent("watcher")),
	)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, p := range []string{path, input} {
		if p == "" {
			continue
		}
		if err := w.Watch(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	changes := make(chan watcher.Event, 1)
	w.OnChange(func(ev watcher.Event) {
		select {
		case changes <- ev:
		default:
		}
	})

	c.logger.Info("watching %s", strings.Join(w.WatchedFiles(), ", "))
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case ev := <-changes:
			if ev.Op == watcher.OpRemove {
				c.logger.Warn("%s removed", ev.Path)
				continue
			}
			c.logger.Info("%s changed (%s), rerunning", ev.Path, ev.Op)
			next := rerun(input)
			if next == input {
				continue
			}
			if input != "" {
				if err := w.Unwatch(input); err != nil {
					c.logger.Warn("unwatch %s: %v", input, err)
				}
			}
			if next != "" {
				if err := w.Watch(next); err != nil {
					c.logger.Warn("watch %s: %v", next, err)
				}
			}
			input = next
		}
	}
}

// writeMetrics dumps every gathered metric family in text exposition format.
func writeMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
