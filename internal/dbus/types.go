package dbus

import (
	"github.com/godbus/dbus/v5"
)

// Status is the daemon state returned by the Status method.
type Status struct {
	State string `json:"state" yaml:"state"` // popover state
	Root  string `json:"root" yaml:"root"`   // watched directory
	Mode  string `json:"mode" yaml:"mode"`   // watcher backend
	Count uint32 `json:"count" yaml:"count"` // captures since start
}

// ModeDisabled is the Status mode when the watch root could not be
// watched and screenshot detection is off.
const ModeDisabled = "disabled"

// RecentCapture is one entry of the RecentCaptures reply, signature (sxs).
type RecentCapture struct {
	Path       string `json:"path" yaml:"path"`
	DetectedAt int64  `json:"detected_at" yaml:"detected_at"` // unix seconds
	Source     string `json:"source" yaml:"source"`
}

// Urgency is the freedesktop notification urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// DesktopNotification is an outgoing org.freedesktop.Notifications.Notify call.
type DesktopNotification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Urgency       Urgency
	Category      string
	DesktopEntry  string
	ImagePath     string
	Transient     bool
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// Hints builds the hints dictionary. Empty values are omitted.
func (n *DesktopNotification) Hints() map[string]dbus.Variant {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(n.Urgency)),
	}
	if n.Category != "" {
		hints["category"] = dbus.MakeVariant(n.Category)
	}
	if n.DesktopEntry != "" {
		hints["desktop-entry"] = dbus.MakeVariant(n.DesktopEntry)
	}
	if n.ImagePath != "" {
		hints["image-path"] = dbus.MakeVariant(n.ImagePath)
	}
	if n.Transient {
		hints["transient"] = dbus.MakeVariant(true)
	}
	return hints
}

// actions returns a non-nil action list for marshaling.
func (n *DesktopNotification) actions() []string {
	if n.Actions == nil {
		return []string{}
	}
	return n.Actions
}
