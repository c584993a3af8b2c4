package display

import (
	"errors"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/shotwatch/internal/popover"
)

var errNoMonitor = errors.New("no monitor available")

// primaryMonitor returns the first monitor of display.
func primaryMonitor(display *gdk.Display) *gdk.Monitor {
	if display == nil {
		return nil
	}
	monitors := display.Monitors()
	if monitors == nil || monitors.NItems() == 0 {
		return nil
	}

	// GTK4 doesn't have a "primary" concept in the same way
	return wrapMonitor(monitors.Item(0))
}

// wrapMonitor wraps a coreglib.Object as a gdk.Monitor.
// This is necessary because gotk4 doesn't expose the wrapMonitor function.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// The gdk.Monitor struct embeds a *coreglib.Object, so we can create
	// one by casting the native pointer. This is how gotk4 does it internally.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

// monitorRect returns the monitor geometry in logical pixels.
func monitorRect(m *gdk.Monitor) (popover.Rect, error) {
	if m == nil {
		return popover.Rect{}, errNoMonitor
	}
	g := m.Geometry()
	if g == nil || g.Width() <= 0 || g.Height() <= 0 {
		return popover.Rect{}, errNoMonitor
	}
	return popover.Rect{X: g.X(), Y: g.Y(), Width: g.Width(), Height: g.Height()}, nil
}

// margins converts an absolute position into top/left layer-shell margins
// on monitor.
func margins(x, y int, monitor popover.Rect) (left, top int) {
	return max(x-monitor.X, 0), max(y-monitor.Y, 0)
}
