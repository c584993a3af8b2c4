package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/shotwatch/internal/audio"
	"github.com/jmylchreest/shotwatch/internal/config"
	"github.com/jmylchreest/shotwatch/internal/daemon"
	"github.com/jmylchreest/shotwatch/internal/dbus"
	"github.com/jmylchreest/shotwatch/internal/display"
	"github.com/jmylchreest/shotwatch/internal/model"
	"github.com/jmylchreest/shotwatch/internal/notify"
	"github.com/jmylchreest/shotwatch/internal/popover"
	"github.com/jmylchreest/shotwatch/internal/theme"
	"github.com/jmylchreest/shotwatch/internal/tray"
)

// mainLoopTimeout bounds how long a D-Bus call waits for the main loop.
const mainLoopTimeout = 5 * time.Second

var errMainLoopTimeout = errors.New("timed out waiting for main loop")

// scheduleMain runs fn on the GTK main loop.
func scheduleMain(fn func()) {
	glib.IdleAdd(fn)
}

// onMain runs fn on the GTK main loop and waits for its result.
func onMain(fn func() error) error {
	result := make(chan error, 1)
	scheduleMain(func() { result <- fn() })

	select {
	case err := <-result:
		return err
	case <-time.After(mainLoopTimeout):
		return errMainLoopTimeout
	}
}

// runDaemon runs the full daemon: watcher, tray icon, popover and D-Bus
// service. It returns the process exit code.
func runDaemon(cfg *config.DaemonConfig, logger *slog.Logger) int {
	app := adw.NewApplication(appID, 0)

	state, err := daemon.NewApp(cfg, scheduleMain, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	// Shared state between GTK main loop and signal handlers
	var (
		service       *dbus.Service
		trayItem      *tray.Item
		themeLoader   *theme.Loader
		player        *audio.Player
		notifications *dbus.NotificationClient
		configWatcher *daemon.ConfigWatcher
		running       atomic.Bool
		exitCode      atomic.Int32
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		scheduleMain(app.Quit)
	}()

	exit := func(code int) {
		exitCode.Store(int32(code))
		app.Quit()
	}

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		// Keep running with no visible windows
		app.Hold()

		themesDir, err := config.ThemesDir()
		if err != nil {
			logger.Warn("failed to resolve themes directory", "error", err)
		}
		themeLoader = theme.NewLoader(themesDir, logger)
		themeLoader.Load(cfg.Theme.Name)
		themeLoader.Apply(nil)
		themeLoader.StartHotReload(ctx)

		host := display.NewHost(&app.Application, logger)
		spec := popover.DefaultWindowSpec()
		spec.Width = cfg.Popover.Width
		spec.Height = cfg.Popover.Height
		spec.AllWorkspaces = cfg.Popover.AllWorkspaces

		popoverCtl := popover.NewController(host, popover.Options{
			Spec:   spec,
			Anchor: cfg.Anchor(),
			Offset: cfg.Popover.Offset,
		}, logger)
		popoverCtl.SetChangeCallback(func(s popover.State) {
			if s == popover.StateVisible {
				host.UpdateCaptures(state.History().Recent(), state.History().Total())
			}
		})
		host.SetDismissHandler(func() {
			if err := popoverCtl.Hide(); err != nil {
				logger.Warn("failed to hide popover", "error", err)
			}
		})

		state.SetCaptureCallback(func(model.Capture) {
			host.UpdateCaptures(state.History().Recent(), state.History().Total())
		})

		// Audio and desktop notifications listen on the in-process bus.
		player = audio.NewPlayer(logger)
		player.Configure(cfg.Audio.Enabled, cfg.Audio.Volume, cfg.SoundPath())
		state.Bus().Subscribe(notify.TopicScreenshotCreated, player.OnCapture)

		notifications, err = dbus.NewNotificationClient(logger)
		if err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		}
		var notifier *daemon.DesktopNotifier
		if notifications != nil {
			notifier = daemon.NewDesktopNotifier(notifications, logger)
			notifier.Apply(cfg)
			notifier.SetActivateHandler(func() {
				scheduleMain(func() {
					if popoverCtl.State() != popover.StateVisible {
						if err := popoverCtl.Toggle(); err != nil {
							logger.Warn("failed to show popover", "error", err)
						}
					}
				})
			})
			if err := notifications.SetActionHandler(notifier.HandleAction); err != nil {
				logger.Warn("failed to listen for notification actions", "error", err)
			}
			state.Bus().Subscribe(notify.TopicScreenshotCreated, notifier.OnCapture)
		}

		service = dbus.NewService(logger)
		service.SetHandlers(state.Handlers(
			func() string { return popoverCtl.State().String() },
			func() error { return onMain(popoverCtl.Toggle) },
		))
		if err := service.Start(); err != nil {
			logger.Warn("D-Bus service unavailable", "error", err)
		} else if cfg.Notify.DBusSignal {
			state.AddSink(service)
		}

		// The tray and popover stay up without screenshot detection.
		if err := state.Start(ctx); err != nil {
			logger.Error("screenshot detection disabled", "root", cfg.WatchRoot(), "error", err)
		}

		trayCtl := tray.NewController(popoverCtl, exit, logger)
		trayItem = tray.NewItem(tray.ItemOptions{
			Title:    appName,
			Tooltip:  cfg.Tray.Tooltip,
			IconName: cfg.Tray.IconName,
			Handler: func(ev tray.Event) {
				scheduleMain(func() { trayCtl.Handle(ev) })
			},
		}, logger)
		if err := trayItem.Start(); err != nil {
			logger.Warn("tray icon unavailable", "error", err)
		}

		configWatcher, err = daemon.NewConfigWatcher(globalOpts.configPath, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
				scheduleMain(func() {
					state.Apply(newConfig)
					popoverCtl.SetPlacement(newConfig.Anchor(), newConfig.Popover.Offset)
					player.Configure(newConfig.Audio.Enabled, newConfig.Audio.Volume, newConfig.SoundPath())
					if notifier != nil {
						notifier.Apply(newConfig)
					}
					trayItem.SetTooltip(newConfig.Tray.Tooltip)
					trayItem.SetIconName(newConfig.Tray.IconName)
					if newConfig.Theme.Name != themeLoader.Current() {
						themeLoader.Load(newConfig.Theme.Name)
						themeLoader.StartHotReload(ctx)
					}
				})
			})
			configWatcher.Start(ctx, cfg)
		}

		st := state.Status(popoverCtl.State().String())
		logger.Info("shotwatchd ready", "root", st.Root, "backend", st.Mode,
			"dbus_name", dbus.ServiceBusName)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if trayItem != nil {
			_ = trayItem.Stop()
		}
		if service != nil {
			_ = service.Stop()
		}
		if err := state.Stop(); err != nil {
			logger.Warn("error stopping watcher", "error", err)
		}
		if notifications != nil {
			_ = notifications.Close()
		}
		if player != nil {
			player.Close()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		running.Store(false)
	})

	status := app.Run(os.Args[:1])
	cancel()

	if code := int(exitCode.Load()); code != 0 {
		logger.Error("shotwatchd exited with error", "code", code)
		return code
	}
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("shotwatchd stopped")
	return 0
}
