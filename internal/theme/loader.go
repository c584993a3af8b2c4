package theme

import (
	"context"
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Loader owns the GTK CSS provider for the popover theme.
type Loader struct {
	mu       sync.Mutex
	logger   *slog.Logger
	userDir  string
	provider *gtk.CSSProvider
	theme    *Theme
	watcher  *Watcher
}

// NewLoader creates a loader reading user themes from userDir.
// Must be called on the GTK main thread.
func NewLoader(userDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		userDir:  userDir,
		provider: gtk.NewCSSProvider(),
	}
}

// Load resolves name and loads it into the provider, falling back to the
// default theme.
func (l *Loader) Load(name string) {
	t, err := ResolveOrDefault(name, l.userDir)
	if err != nil {
		l.logger.Warn("theme not available, using default", "theme", name, "error", err)
	}

	l.mu.Lock()
	l.theme = t
	l.mu.Unlock()

	l.provider.LoadFromString(t.CSS)
	l.logger.Info("loaded theme", "name", t.Name, "path", t.Path)
}

// Apply attaches the provider to display.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, cannot apply theme")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// StartHotReload polls the current user theme and reloads the provider on
// the GTK main loop when it changes.
func (l *Loader) StartHotReload(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
	if l.theme == nil || l.theme.IsBundled() {
		return
	}

	l.watcher = NewWatcher(l.theme, l.logger)
	l.watcher.SetChangeCallback(func(css string) {
		glib.IdleAdd(func() {
			l.provider.LoadFromString(css)
		})
	})
	l.watcher.Start(ctx)
}

// StopHotReload stops watching the theme.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.watcher != nil {
		l.watcher.Stop()
		l.watcher = nil
	}
}

// Current returns the loaded theme name.
func (l *Loader) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.theme == nil {
		return ""
	}
	return l.theme.Name
}
