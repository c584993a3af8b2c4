package popover

import "fmt"

// Anchor selects where the popover opens.
type Anchor string

const (
	// AnchorTrayBottomCenter centers the window horizontally below the
	// tray icon, or above it when the tray sits at the bottom edge.
	AnchorTrayBottomCenter Anchor = "tray-bottom-center"
	// AnchorTrayCenter centers the window on the tray icon.
	AnchorTrayCenter  Anchor = "tray-center"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomRight Anchor = "bottom-right"
	AnchorCenter      Anchor = "center"
)

// ValidAnchors returns all valid anchor values.
func ValidAnchors() []Anchor {
	return []Anchor{
		AnchorTrayBottomCenter,
		AnchorTrayCenter,
		AnchorTopRight,
		AnchorBottomRight,
		AnchorCenter,
	}
}

// ParseAnchor validates an anchor name.
func ParseAnchor(s string) (Anchor, error) {
	for _, a := range ValidAnchors() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid anchor %q, must be one of: %v", s, ValidAnchors())
}

// TrayRelative reports whether the anchor depends on the tray location.
func (a Anchor) TrayRelative() bool {
	return a == AnchorTrayBottomCenter || a == AnchorTrayCenter
}

// Rect is a rectangle in monitor coordinates. A tray location reported as
// a single point has zero width and height.
type Rect struct {
	X, Y          int
	Width, Height int
}

// IsZero reports whether r carries no location at all.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

func (r Rect) centerX() int { return r.X + r.Width/2 }
func (r Rect) centerY() int { return r.Y + r.Height/2 }

// Place returns the top-left corner for a width x height window. Tray
// anchors without a known tray location fall back to the monitor center.
// The result is clamped to the monitor.
func Place(anchor Anchor, tray, monitor Rect, width, height, offset int) (int, int) {
	if anchor.TrayRelative() && tray.IsZero() {
		anchor = AnchorCenter
	}

	var x, y int
	switch anchor {
	case AnchorTrayBottomCenter:
		x = tray.centerX() - width/2
		y = tray.Y + tray.Height + offset
		// Bottom panels: open upwards
		if y+height > monitor.Y+monitor.Height {
			y = tray.Y - height - offset
		}
	case AnchorTrayCenter:
		x = tray.centerX() - width/2
		y = tray.centerY() - height/2
	case AnchorTopRight:
		x = monitor.X + monitor.Width - width - offset
		y = monitor.Y + offset
	case AnchorBottomRight:
		x = monitor.X + monitor.Width - width - offset
		y = monitor.Y + monitor.Height - height - offset
	default:
		x = monitor.centerX() - width/2
		y = monitor.centerY() - height/2
	}

	return clamp(x, monitor.X, monitor.X+monitor.Width-width),
		clamp(y, monitor.Y, monitor.Y+monitor.Height-height)
}

// clamp keeps v within [lo, hi]; lo wins when the window is larger than
// the monitor.
func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
