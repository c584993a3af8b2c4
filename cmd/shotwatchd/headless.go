package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/shotwatch/internal/config"
	"github.com/jmylchreest/shotwatch/internal/daemon"
	"github.com/jmylchreest/shotwatch/internal/dbus"
)

// runHeadless runs the watcher and the D-Bus service without GTK.
// Bus listeners run on the watcher goroutine.
func runHeadless(cfg *config.DaemonConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := daemon.NewApp(cfg, nil, logger)
	if err != nil {
		return err
	}

	service := dbus.NewService(logger)
	service.SetHandlers(app.Handlers(nil, nil))
	if err := service.Start(); err != nil {
		return fmt.Errorf("failed to start D-Bus service: %w", err)
	}
	defer func() { _ = service.Stop() }()

	if cfg.Notify.DBusSignal {
		app.AddSink(service)
	}

	// Status keeps answering without screenshot detection.
	if err := app.Start(ctx); err != nil {
		logger.Error("screenshot detection disabled", "root", cfg.WatchRoot(), "error", err)
	}
	defer func() { _ = app.Stop() }()

	configWatcher, err := daemon.NewConfigWatcher(globalOpts.configPath, logger)
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
	} else {
		configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
			app.Apply(newConfig)
		})
		configWatcher.Start(ctx, cfg)
		defer configWatcher.Stop()
	}

	st := app.Status("headless")
	logger.Info("shotwatchd ready", "mode", "headless", "root", st.Root,
		"backend", st.Mode, "dbus_name", dbus.ServiceBusName)

	<-ctx.Done()
	logger.Info("shotwatchd stopped")
	return nil
}
