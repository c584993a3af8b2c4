// Package tray implements the system tray icon: a StatusNotifierItem with a
// one-entry dbusmenu, and the controller that maps tray events onto the
// popover.
package tray

import (
	"log/slog"

	"github.com/jmylchreest/shotwatch/internal/popover"
)

// MenuQuit is the id of the quit menu item.
const MenuQuit = "quit"

// Button identifies a mouse button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "unknown"
	}
}

// ButtonState is the phase of a click.
type ButtonState int

const (
	ButtonDown ButtonState = iota
	ButtonUp
)

// Event is something that happened on the tray icon.
type Event interface {
	isEvent()
}

// MenuEvent is a menu item activation.
type MenuEvent struct {
	ID string
}

// ClickEvent is a click on the icon. X and Y are the screen position the
// host reported; both are zero when unknown.
type ClickEvent struct {
	Button Button
	State  ButtonState
	X, Y   int
}

// ScrollEvent is a scroll over the icon.
type ScrollEvent struct {
	Delta       int
	Orientation string
}

func (MenuEvent) isEvent()   {}
func (ClickEvent) isEvent()  {}
func (ScrollEvent) isEvent() {}

// Popover is the part of the popover controller the tray drives.
type Popover interface {
	Toggle() error
	SetTrayRect(r popover.Rect)
}

// Controller routes tray events.
type Controller struct {
	popover Popover
	exit    func(code int)
	logger  *slog.Logger
}

// NewController creates a tray controller. exit terminates the process.
func NewController(p Popover, exit func(code int), logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		popover: p,
		exit:    exit,
		logger:  logger,
	}
}

// Handle processes one tray event:
//   - menu "quit" exits with code 0 regardless of popover state
//   - left-button release toggles the popover
//   - everything else is ignored
func (c *Controller) Handle(ev Event) {
	switch e := ev.(type) {
	case MenuEvent:
		if e.ID != MenuQuit {
			c.logger.Debug("ignoring tray menu event", "id", e.ID)
			return
		}
		c.logger.Info("quit requested from tray")
		c.exit(0)

	case ClickEvent:
		if e.Button != ButtonLeft || e.State != ButtonUp {
			return
		}
		if e.X != 0 || e.Y != 0 {
			c.popover.SetTrayRect(popover.Rect{X: e.X, Y: e.Y})
		}
		// Toggle logs its own failures; the tray keeps running.
		_ = c.popover.Toggle()

	default:
		c.logger.Debug("ignoring tray event", "event", ev)
	}
}
