package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dshills/strand/internal/rope"
)

type statsOptions struct {
	rebalance bool
	chunkSize string
}

func newStatsCommand(c *cli) *cobra.Command {
	var opts statsOptions

	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Load a file into a rope and show its tree shape",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.stats(cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.rebalance, "rebalance", false, "also show the shape after rebalancing")
	cmd.Flags().StringVar(&opts.chunkSize, "chunk-size", "", "characters per leaf, e.g. 512 or 4KiB (default from config)")

	return cmd
}

func (c *cli) stats(out io.Writer, path string, opts statsOptions) error {
	chunkSize := c.cfg.Rope.ChunkSize
	if opts.chunkSize != "" {
		n, err := humanize.ParseBytes(opts.chunkSize)
		if err != nil {
			return fmt.Errorf("invalid chunk size %q: %w", opts.chunkSize, err)
		}
		if n == 0 || n > rope.MaxChunkSize {
			return fmt.Errorf("invalid chunk size %q: must be between 1 and %d", opts.chunkSize, rope.MaxChunkSize)
		}
		chunkSize = int(n)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := rope.FromReaderSize(f, chunkSize)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	c.logger.Debug("loaded %s: %d chars in %d leaves", path, r.Length(), r.LeafCount())

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(path)

	before := r.Stats()
	header := table.Row{"", "Loaded"}
	rows := statsRows(before)
	if opts.rebalance {
		after := r.Rebalance().Stats()
		header = append(header, "Rebalanced")
		for i, cell := range statsRows(after) {
			rows[i] = append(rows[i], cell[1])
		}
	}

	tbl.AppendHeader(header)
	tbl.AppendRows(rows)
	tbl.AppendFooter(table.Row{"Size", humanize.Bytes(uint64(info.Size()))})

	fmt.Fprintln(out, tbl.Render())
	return nil
}

func statsRows(s rope.Stats) []table.Row {
	return []table.Row{
		{"Characters", humanize.Comma(int64(s.Length))},
		{"Leaves", humanize.Comma(int64(s.Leaves))},
		{"Empty leaves", humanize.Comma(int64(s.EmptyLeaves))},
		{"Nodes", humanize.Comma(int64(s.Nodes))},
		{"Depth", s.Depth},
	}
}
