package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/shotwatch/internal/adapter/output"
	"github.com/jmylchreest/shotwatch/internal/core"
	"github.com/jmylchreest/shotwatch/internal/dbus"
	"github.com/jmylchreest/shotwatch/internal/model"
)

// callTimeout bounds D-Bus calls to the daemon.
const callTimeout = 5 * time.Second

var listenOpts struct {
	format string
}

var recentOpts struct {
	format   string
	template string
	noIndex  bool
	noTime   bool
	field    string
	index    int
	since    string
	filter   string
	search   string
	sort     string
	order    string
	limit    int
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print screenshots reported by the running daemon",
	Long: `Listen for the ScreenshotCreated D-Bus signal and print each path.

The daemon does not need to be running yet; screenshots are printed as
soon as it starts emitting.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle the daemon's popover window",
	Long: `Toggle the popover window of the running daemon, as a tray click would.

Useful as a compositor keybinding:

  bind = SUPER, S, exec, shotwatch toggle`,
	Args: cobra.NoArgs,
	RunE: runToggle,
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the daemon's recent screenshots",
	Long: `List the screenshots the running daemon saw this session, newest first.

Use --format dmenu to pick one with a launcher, or --field with --index
to print a single entry:

  shotwatch recent --field path --index 1 | wl-copy

Filter expressions are comma-separated conditions over filename, dir,
path, source and time:

  shotwatch recent --filter 'filename~Screenshot,time>1h'`,
	Args: cobra.NoArgs,
	RunE: runRecent,
}

func init() {
	rootCmd.AddCommand(listenCmd, toggleCmd, recentCmd)

	listenCmd.Flags().StringVarP(&listenOpts.format, "format", "f", "paths",
		"Output format (plain, dmenu, json, yaml, paths)")

	recentCmd.Flags().StringVarP(&recentOpts.format, "format", "f", "plain",
		"Output format (plain, dmenu, json, yaml, paths)")
	recentCmd.Flags().StringVar(&recentOpts.template, "template", "",
		"Go template for plain/dmenu output")
	recentCmd.Flags().BoolVar(&recentOpts.noIndex, "no-index", false,
		"Omit the index column")
	recentCmd.Flags().BoolVar(&recentOpts.noTime, "no-time", false,
		"Omit the relative time")
	recentCmd.Flags().StringVar(&recentOpts.field, "field", "",
		"Print one field of the --index entry (path, filename, dir, time)")
	recentCmd.Flags().IntVar(&recentOpts.index, "index", 0,
		"1-based entry for --field")
	recentCmd.Flags().StringVar(&recentOpts.since, "since", "0",
		"Only captures newer than this (e.g. 30m, 48h, 7d, 1w; 0 for all)")
	recentCmd.Flags().StringVar(&recentOpts.filter, "filter", "",
		"Filter expression (e.g. 'filename~shot,time>1h')")
	recentCmd.Flags().StringVarP(&recentOpts.search, "search", "s", "",
		"Only captures whose path contains this text")
	recentCmd.Flags().StringVar(&recentOpts.sort, "sort", string(core.SortByTime),
		"Sort field (time, filename, dir)")
	recentCmd.Flags().StringVar(&recentOpts.order, "order", string(core.SortDesc),
		"Sort order (asc, desc)")
	recentCmd.Flags().IntVarP(&recentOpts.limit, "limit", "n", 0,
		"Maximum entries (0 for all)")
}

func runListen(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(listenOpts.format)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format, output.FormatterOptions{Stream: true})

	client, err := dbus.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = client.Listen(ctx, func(path string) {
		c := captureFromPath(path, model.SourceDBus)
		if err := formatter.Format(os.Stdout, []model.Capture{c}); err != nil {
			logger.Warn("failed to write capture", "path", path, "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runToggle(cmd *cobra.Command, args []string) error {
	client, err := dbus.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	if err := client.TogglePopover(ctx); err != nil {
		return fmt.Errorf("failed to toggle popover: %w", err)
	}
	return nil
}

func runRecent(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(recentOpts.format)
	if err != nil {
		return err
	}
	since, err := core.ParseDuration(recentOpts.since)
	if err != nil {
		return fmt.Errorf("invalid --since: %w", err)
	}
	expr, err := core.ParseFilter(recentOpts.filter)
	if err != nil {
		return fmt.Errorf("invalid --filter: %w", err)
	}
	sortOpts, err := core.ParseSortOptions(recentOpts.sort, recentOpts.order)
	if err != nil {
		return err
	}

	client, err := dbus.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	recent, err := client.RecentCaptures(ctx)
	if err != nil {
		return fmt.Errorf("failed to get recent captures: %w", err)
	}

	captures := make([]model.Capture, len(recent))
	for i, rc := range recent {
		captures[i] = captureFromRecent(rc)
	}

	captures = core.FilterWithExpr(captures, expr)
	captures = core.Search(captures, recentOpts.search)
	core.Sort(captures, sortOpts)
	captures = core.Filter(captures, core.FilterOptions{Since: since, Limit: recentOpts.limit})

	if recentOpts.field != "" {
		c := core.LookupByIndex(captures, recentOpts.index)
		if c == nil {
			return fmt.Errorf("index %d out of range (1-%d)", recentOpts.index, len(captures))
		}
		fmt.Println(output.FormatField(c, recentOpts.field))
		return nil
	}

	opts := output.DefaultFormatterOptions()
	opts.Template = recentOpts.template
	opts.ShowIndex = !recentOpts.noIndex
	opts.ShowTime = !recentOpts.noTime
	return output.NewFormatter(format, opts).Format(os.Stdout, captures)
}

// captureFromRecent builds a Capture from a RecentCaptures entry, keeping
// the daemon's detection time and source.
func captureFromRecent(rc dbus.RecentCapture) model.Capture {
	source := rc.Source
	if source == "" {
		source = model.SourceDBus
	}
	return model.Capture{
		Path:       rc.Path,
		Filename:   filepath.Base(rc.Path),
		Dir:        filepath.Dir(rc.Path),
		Source:     source,
		DetectedAt: rc.DetectedAt,
	}
}

// captureFromPath builds a Capture for a path from the ScreenshotCreated
// signal. The file's modification time stands in for the detection time.
func captureFromPath(path, source string) model.Capture {
	c := model.Capture{
		Path:     path,
		Filename: filepath.Base(path),
		Dir:      filepath.Dir(path),
		Source:   source,
	}
	if info, err := os.Stat(path); err == nil {
		c.DetectedAt = info.ModTime().Unix()
	}
	return c
}
