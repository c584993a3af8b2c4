package display

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/shotwatch/internal/model"
	"github.com/jmylchreest/shotwatch/internal/popover"
)

// Namespace is the layer-shell namespace compositors can match rules on.
const Namespace = "shotwatch-popover"

var errNoApplication = errors.New("no GTK application")

// Host creates the popover window on the GTK main thread. All methods
// must be called from the main thread.
type Host struct {
	app    *gtk.Application
	logger *slog.Logger

	layerShell bool
	list       *CaptureList
	window     *Window

	onDismiss func()
}

// NewHost creates a Host for app. Layer-shell positioning is used on
// Wayland sessions.
func NewHost(app *gtk.Application, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	return &Host{
		app:        app,
		logger:     logger,
		layerShell: os.Getenv("WAYLAND_DISPLAY") != "",
	}
}

// SetDismissHandler sets the function run when the user dismisses the
// window with Escape or the compositor asks it to close. It should hide
// through the popover controller so the state stays in sync.
func (h *Host) SetDismissHandler(fn func()) {
	h.onDismiss = fn
}

// dismiss runs the dismiss handler and reports whether there was one.
func (h *Host) dismiss() bool {
	if h.onDismiss == nil {
		return false
	}
	h.onDismiss()
	return true
}

// UpdateCaptures refreshes the list if the window exists.
func (h *Host) UpdateCaptures(captures []model.Capture, total int) {
	if h.list == nil {
		return
	}
	h.list.Update(captures, total)
}

// CreateWindow implements popover.Host. The window is built hidden.
func (h *Host) CreateWindow(spec popover.WindowSpec) (popover.Window, error) {
	if h.app == nil {
		return nil, errNoApplication
	}
	if h.window != nil {
		return nil, fmt.Errorf("window %q already exists", spec.ID)
	}

	win := gtk.NewWindow()
	win.SetApplication(h.app)
	win.SetTitle("shotwatch")
	win.SetDecorated(spec.Decorated)
	win.SetResizable(spec.Resizable)
	win.SetDefaultSize(spec.Width, spec.Height)
	win.SetSizeRequest(spec.Width, spec.Height)
	win.SetHideOnClose(true)
	win.SetVisible(false)
	if spec.Transparent {
		win.AddCSSClass("shotwatch-popover")
	}

	if h.layerShell {
		layershell.InitForWindow(win)
		layershell.SetLayer(win, layershell.LayerShellLayerTop)
		layershell.SetExclusiveZone(win, 0) // Don't reserve space
		layershell.SetKeyboardMode(win, layershell.LayerShellKeyboardModeOnDemand)
		layershell.SetNamespace(win, Namespace)
		layershell.SetAnchor(win, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(win, layershell.LayerShellEdgeLeft, true)
	} else {
		// Without layer-shell the window manager places the window and
		// decides taskbar and workspace visibility.
		h.logger.Debug("layer-shell unavailable, window placement left to the window manager",
			"skip_taskbar", spec.SkipTaskbar, "all_workspaces", spec.AllWorkspaces)
	}

	h.list = NewCaptureList()
	win.SetChild(h.list.Widget())

	keys := gtk.NewEventControllerKey()
	keys.ConnectKeyPressed(func(keyval, _ uint, _ gdk.ModifierType) bool {
		if keyval != gdk.KEY_Escape {
			return false
		}
		return h.dismiss()
	})
	win.AddController(keys)

	// Handled close requests skip hide-on-close; the controller hides.
	win.ConnectCloseRequest(h.dismiss)

	h.window = &Window{host: h, win: win}
	h.logger.Debug("popover window created", "id", spec.ID, "width", spec.Width, "height", spec.Height)
	return h.window, nil
}

// Monitor implements popover.Host.
func (h *Host) Monitor() (popover.Rect, error) {
	return monitorRect(primaryMonitor(gdk.DisplayGetDefault()))
}

// Window is the GTK popover window.
type Window struct {
	host *Host
	win  *gtk.Window
}

// MoveTo implements popover.Window. GTK4 cannot move toplevels outside
// layer-shell, so there it is a no-op.
func (w *Window) MoveTo(x, y int) error {
	if !w.host.layerShell {
		return nil
	}

	monitor := primaryMonitor(gdk.DisplayGetDefault())
	rect, err := monitorRect(monitor)
	if err != nil {
		return err
	}
	layershell.SetMonitor(w.win, monitor)

	left, top := margins(x, y, rect)
	layershell.SetMargin(w.win, layershell.LayerShellEdgeLeft, left)
	layershell.SetMargin(w.win, layershell.LayerShellEdgeTop, top)
	return nil
}

// Show implements popover.Window.
func (w *Window) Show() error {
	w.win.Present()
	if !w.win.IsVisible() {
		return errors.New("window did not become visible")
	}
	return nil
}

// Hide implements popover.Window.
func (w *Window) Hide() error {
	w.win.SetVisible(false)
	return nil
}

// Focus implements popover.Window.
func (w *Window) Focus() error {
	if !w.win.GrabFocus() {
		return errors.New("window refused focus")
	}
	return nil
}
