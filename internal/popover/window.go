package popover

// WindowID identifies the popover window.
const WindowID = "main"

// Default window geometry.
const (
	DefaultWidth  = 360
	DefaultHeight = 450
)

// WindowSpec describes the popover window. The flags are fixed at creation.
type WindowSpec struct {
	ID            string
	Width         int
	Height        int
	Resizable     bool
	Decorated     bool
	Transparent   bool
	SkipTaskbar   bool
	Visible       bool // must be false: creation never shows the window
	AllWorkspaces bool
}

// DefaultWindowSpec returns the popover window description.
func DefaultWindowSpec() WindowSpec {
	return WindowSpec{
		ID:            WindowID,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Resizable:     false,
		Decorated:     false,
		Transparent:   true,
		SkipTaskbar:   true,
		Visible:       false,
		AllWorkspaces: true,
	}
}

// Window is a host window handle.
type Window interface {
	// MoveTo places the window's top-left corner in monitor coordinates.
	MoveTo(x, y int) error
	Show() error
	Hide() error
	Focus() error
}

// Host creates windows and reports screen geometry.
type Host interface {
	// CreateWindow creates a hidden window from spec.
	CreateWindow(spec WindowSpec) (Window, error)
	// Monitor returns the geometry of the monitor the popover opens on.
	Monitor() (Rect, error)
}
