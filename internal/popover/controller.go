package popover

import (
	"log/slog"
	"sync"
)

// State is the popover lifecycle state.
type State int

const (
	// StateAbsent means no window has been created yet.
	StateAbsent State = iota
	// StateHidden means the window exists and is not visible.
	StateHidden
	// StateVisible means the window is shown.
	StateVisible
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateHidden:
		return "hidden"
	case StateVisible:
		return "visible"
	default:
		return "unknown"
	}
}

// Options configures a Controller.
type Options struct {
	Spec   WindowSpec
	Anchor Anchor
	Offset int
}

// Controller toggles the single popover window. It is safe for concurrent
// use; toggles are serialized.
type Controller struct {
	mu     sync.Mutex
	host   Host
	logger *slog.Logger

	spec   WindowSpec
	anchor Anchor
	offset int

	window Window
	state  State
	tray   Rect

	onChange func(State)
}

// NewController creates a controller in StateAbsent. A zero Spec uses
// DefaultWindowSpec and an empty Anchor uses AnchorTrayBottomCenter.
func NewController(host Host, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Spec == (WindowSpec{}) {
		opts.Spec = DefaultWindowSpec()
	}
	if opts.Spec.ID == "" {
		opts.Spec.ID = WindowID
	}
	// Creation never shows the window.
	opts.Spec.Visible = false
	if opts.Anchor == "" {
		opts.Anchor = AnchorTrayBottomCenter
	}

	return &Controller{
		host:   host,
		logger: logger,
		spec:   opts.Spec,
		anchor: opts.Anchor,
		offset: opts.Offset,
		state:  StateAbsent,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetTrayRect records the tray icon location used by tray anchors.
func (c *Controller) SetTrayRect(r Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tray = r
}

// SetPlacement changes the anchor and offset used on the next show.
func (c *Controller) SetPlacement(anchor Anchor, offset int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchor = anchor
	c.offset = offset
}

// SetChangeCallback sets a callback invoked after every state change.
// It runs with the controller lock released.
func (c *Controller) SetChangeCallback(callback func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = callback
}

// Toggle advances the state machine:
//
//	Absent  -> create hidden, position, show, focus -> Visible
//	Hidden  -> position, show, focus                -> Visible
//	Visible -> hide                                 -> Hidden
//
// On failure the state reflects what actually exists: a window that was
// created but could not be shown leaves the controller Hidden.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	before := c.state
	err := c.toggleLocked()
	after := c.state
	callback := c.onChange
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("popover toggle failed", "from", before, "to", after, "error", err)
	} else {
		c.logger.Debug("popover toggled", "from", before, "to", after)
	}
	if after != before && callback != nil {
		callback(after)
	}
	return err
}

// Hide hides a visible window; other states are left alone.
func (c *Controller) Hide() error {
	c.mu.Lock()
	if c.state != StateVisible {
		c.mu.Unlock()
		return nil
	}
	err := c.hideLocked()
	callback := c.onChange
	c.mu.Unlock()

	if err == nil && callback != nil {
		callback(StateHidden)
	}
	return err
}

func (c *Controller) toggleLocked() error {
	switch c.state {
	case StateVisible:
		return c.hideLocked()
	case StateAbsent:
		w, err := c.host.CreateWindow(c.spec)
		if err != nil {
			return &WindowError{Op: "create", Kind: ErrCreationFailed, Cause: err}
		}
		if w == nil {
			return &WindowError{Op: "create", Kind: ErrCreationFailed}
		}
		c.window = w
		c.state = StateHidden
		c.logger.Debug("popover window created", "id", c.spec.ID,
			"width", c.spec.Width, "height", c.spec.Height)
		return c.showLocked()
	default:
		return c.showLocked()
	}
}

// showLocked positions, shows and focuses the existing window.
func (c *Controller) showLocked() error {
	monitor, err := c.host.Monitor()
	if err != nil {
		return &WindowError{Op: "position", Kind: ErrPositionFailed, Cause: err}
	}

	x, y := Place(c.anchor, c.tray, monitor, c.spec.Width, c.spec.Height, c.offset)
	if err := c.window.MoveTo(x, y); err != nil {
		return &WindowError{Op: "position", Kind: ErrPositionFailed, Cause: err}
	}

	if err := c.window.Show(); err != nil {
		return &WindowError{Op: "show", Kind: ErrShowFailed, Cause: err}
	}
	c.state = StateVisible

	// A window that shows but cannot take focus is still usable.
	if err := c.window.Focus(); err != nil {
		c.logger.Debug("popover focus failed", "error", err)
	}
	return nil
}

func (c *Controller) hideLocked() error {
	if err := c.window.Hide(); err != nil {
		return &WindowError{Op: "hide", Kind: ErrHideFailed, Cause: err}
	}
	c.state = StateHidden
	return nil
}
