package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/shotwatch/internal/config"
	"github.com/jmylchreest/shotwatch/internal/dbus"
	"github.com/jmylchreest/shotwatch/internal/model"
	"github.com/jmylchreest/shotwatch/internal/notify"
	"github.com/jmylchreest/shotwatch/internal/watch"
)

// ErrAlreadyStarted is returned by Start on a running App.
var ErrAlreadyStarted = errors.New("app already started")

// App is the daemon's application state. It keeps the watcher alive for
// the process lifetime and records every capture in the session history.
type App struct {
	mu     sync.RWMutex
	logger *slog.Logger

	cfg     *config.DaemonConfig
	bus     *notify.Bus
	history *model.History
	sinks   []notify.Sink
	watcher *watch.Watcher

	// setupErr is the last Start failure; detection is off while set.
	setupErr error

	onCapture func(model.Capture)
}

// NewApp creates the application state. Listeners on the in-process bus
// run on schedule; nil runs them on the watcher goroutine.
func NewApp(cfg *config.DaemonConfig, schedule notify.Scheduler, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{
		logger:  logger,
		cfg:     cfg,
		bus:     notify.NewBus(schedule, logger),
		history: model.NewHistory(cfg.Popover.History),
	}
	a.bus.Subscribe(notify.TopicScreenshotCreated, a.record)
	return a, nil
}

// Bus returns the in-process event bus.
func (a *App) Bus() *notify.Bus {
	return a.bus
}

// History returns the session capture history.
func (a *App) History() *model.History {
	return a.history
}

// Config returns the active configuration.
func (a *App) Config() *config.DaemonConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// Watcher returns the screenshot watcher, nil before Start.
func (a *App) Watcher() *watch.Watcher {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.watcher
}

// AddSink adds a sink the watcher emits to next to the bus, such as the
// D-Bus signal. It must be called before Start.
func (a *App) AddSink(s notify.Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sinks = append(a.sinks, s)
}

// SetCaptureCallback sets a function called after each capture is recorded.
// It runs on the bus scheduler.
func (a *App) SetCaptureCallback(callback func(model.Capture)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onCapture = callback
}

// Start compiles the match rule and starts the watcher.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.watcher != nil {
		return ErrAlreadyStarted
	}

	rule, err := a.cfg.Rule()
	if err != nil {
		return fmt.Errorf("invalid match rule: %w", err)
	}

	sink := append(notify.Multi{a.bus}, a.sinks...)
	w := watch.New(a.cfg.WatchOptions(), rule, sink, a.logger)
	if err := w.Start(ctx); err != nil {
		a.setupErr = err
		return err
	}

	a.watcher = w
	a.setupErr = nil
	return nil
}

// SetupErr returns the error from the last failed Start, nil otherwise.
func (a *App) SetupErr() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.setupErr
}

// Stop stops the watcher.
func (a *App) Stop() error {
	a.mu.RLock()
	w := a.watcher
	a.mu.RUnlock()

	if w == nil {
		return nil
	}
	return w.Stop()
}

// Recent returns the recent captures, newest first.
func (a *App) Recent() []dbus.RecentCapture {
	captures := a.history.Recent()
	recent := make([]dbus.RecentCapture, len(captures))
	for i, c := range captures {
		recent[i] = dbus.RecentCapture{
			Path:       c.Path,
			DetectedAt: c.DetectedAt,
			Source:     c.Source,
		}
	}
	return recent
}

// Handlers returns the D-Bus method handlers. popoverState and toggle may
// be nil when there is no popover. They keep answering when the watcher
// failed to start.
func (a *App) Handlers(popoverState func() string, toggle func() error) dbus.Handlers {
	return dbus.Handlers{
		Toggle: toggle,
		Status: func() dbus.Status {
			state := "headless"
			if popoverState != nil {
				state = popoverState()
			}
			return a.Status(state)
		},
		Recent: a.Recent,
	}
}

// Status reports the daemon state for the D-Bus Status method. The
// popover state is passed in since headless daemons have none.
func (a *App) Status(popoverState string) dbus.Status {
	st := dbus.Status{
		State: popoverState,
		Count: uint32(a.history.Total()),
	}
	if w := a.Watcher(); w != nil {
		st.Root = w.Root()
		st.Mode = string(w.Backend())
	} else {
		st.Root = a.Config().WatchRoot()
		if a.SetupErr() != nil {
			st.Mode = dbus.ModeDisabled
		}
	}
	return st
}

// Apply takes a reloaded configuration. Settings that only take effect on
// restart are returned by name and otherwise ignored.
func (a *App) Apply(cfg *config.DaemonConfig) []string {
	a.mu.Lock()
	old := a.cfg
	a.cfg = cfg
	a.mu.Unlock()

	a.history.SetLimit(cfg.Popover.History)

	restart := RestartRequired(old, cfg)
	if len(restart) > 0 {
		a.logger.Warn("config changes require a restart", "settings", restart)
	}
	return restart
}

// record adds a capture to the history.
func (a *App) record(ev notify.Event) {
	source := model.SourceNative
	if w := a.Watcher(); w != nil && w.Backend() == watch.ModePoll {
		source = model.SourcePoll
	}

	c, err := model.NewCapture(ev.Payload, source)
	if err != nil {
		a.logger.Warn("failed to record capture", "path", ev.Payload, "error", err)
		return
	}
	a.history.Add(*c)

	a.mu.RLock()
	callback := a.onCapture
	a.mu.RUnlock()
	if callback != nil {
		callback(*c)
	}
}
