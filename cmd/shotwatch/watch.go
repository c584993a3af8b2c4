package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/shotwatch/internal/adapter/output"
	"github.com/jmylchreest/shotwatch/internal/model"
	"github.com/jmylchreest/shotwatch/internal/notify"
	"github.com/jmylchreest/shotwatch/internal/watch"
)

var watchOpts struct {
	format       string
	root         string
	mode         string
	pollInterval time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for screenshots in the foreground",
	Long: `Watch the screenshot directory in the foreground and print each new
screenshot as it is created, without a running daemon.

Use --format json or yaml for one record per screenshot, suitable for
piping into other tools.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.format, "format", "f", "plain",
		"Output format (plain, dmenu, json, yaml, paths)")
	watchCmd.Flags().StringVar(&watchOpts.root, "root", "",
		"Directory to watch (default: from config, else ~/Desktop)")
	watchCmd.Flags().StringVar(&watchOpts.mode, "mode", "",
		"Watch backend (auto, native, poll)")
	watchCmd.Flags().DurationVar(&watchOpts.pollInterval, "poll-interval", 0,
		"Polling interval for the poll backend")
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(watchOpts.format)
	if err != nil {
		return err
	}

	rule, err := cfg.Rule()
	if err != nil {
		return fmt.Errorf("invalid match rule: %w", err)
	}

	opts := cfg.WatchOptions()
	if watchOpts.root != "" {
		opts.Root = watchOpts.root
	}
	if watchOpts.mode != "" {
		opts.Mode = watch.Mode(watchOpts.mode)
	}
	if watchOpts.pollInterval > 0 {
		opts.PollInterval = watchOpts.pollInterval
	}

	fmtOpts := output.FormatterOptions{ShowTime: false, ShowDir: true, Stream: true}
	formatter := output.NewFormatter(format, fmtOpts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var w *watch.Watcher
	sink := notify.SinkFunc(func(topic, payload string) error {
		if err := notify.CheckPayload(topic, payload); err != nil {
			return err
		}
		source := model.SourceNative
		if w.Backend() == watch.ModePoll {
			source = model.SourcePoll
		}
		c, err := model.NewCapture(payload, source)
		if err != nil {
			return notify.SerializationFailed(topic, payload, err)
		}
		return formatter.Format(os.Stdout, []model.Capture{*c})
	})

	w = watch.New(opts, rule, sink, logger)
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	fmt.Fprintf(os.Stderr, "watching %s (%s), press Ctrl+C to stop\n", w.Root(), w.Backend())
	<-ctx.Done()
	return nil
}
