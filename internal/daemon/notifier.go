package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/shotwatch/internal/config"
	"github.com/jmylchreest/shotwatch/internal/dbus"
	"github.com/jmylchreest/shotwatch/internal/notify"
)

// ActionDefault is the action invoked by clicking a notification body.
const ActionDefault = "default"

// DefaultSendTimeout bounds a Notify call to the notification server.
const DefaultSendTimeout = 2 * time.Second

// NotificationSender sends a desktop notification.
type NotificationSender interface {
	Notify(ctx context.Context, n *dbus.DesktopNotification) (uint32, error)
}

// DesktopNotifier sends a freedesktop notification for each capture.
// It rate limits so a burst of captures doesn't flood the desktop.
type DesktopNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	sender NotificationSender

	// Clicking a notification runs onActivate
	onActivate func()

	// Rate limiting
	lastNotifyTime time.Time
	minInterval    time.Duration

	// Replace the previous notification rather than stacking
	lastID uint32

	sendTimeout time.Duration

	enabled bool
	now     func() time.Time
}

// NewDesktopNotifier creates a disabled DesktopNotifier.
func NewDesktopNotifier(sender NotificationSender, logger *slog.Logger) *DesktopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesktopNotifier{
		logger:      logger,
		sender:      sender,
		minInterval: 1 * time.Second,
		sendTimeout: DefaultSendTimeout,
		now:         time.Now,
	}
}

// SetEnabled enables or disables capture notifications.
func (n *DesktopNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Apply takes the notify settings from a (re)loaded config.
func (n *DesktopNotifier) Apply(cfg *config.DaemonConfig) {
	n.SetEnabled(cfg.Notify.Desktop)
}

// SetMinInterval sets the minimum interval between notifications.
func (n *DesktopNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// SetActivateHandler sets the function run when a notification is clicked.
func (n *DesktopNotifier) SetActivateHandler(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onActivate = fn
}

// HandleAction is a dbus.ActionHandler.
func (n *DesktopNotifier) HandleAction(id uint32, actionKey string) {
	n.mu.Lock()
	fn := n.onActivate
	n.mu.Unlock()

	n.logger.Debug("notification action invoked", "id", id, "action", actionKey)
	if actionKey == ActionDefault && fn != nil {
		fn()
	}
}

// OnCapture is a notify.Listener for the screenshot-created topic. It
// runs on the main loop, so the notification is sent in the background.
func (n *DesktopNotifier) OnCapture(ev notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled || n.sender == nil {
		return
	}

	now := n.now()
	if !n.lastNotifyTime.IsZero() && now.Sub(n.lastNotifyTime) < n.minInterval {
		n.logger.Debug("capture notification rate-limited", "path", ev.Payload)
		return
	}
	n.lastNotifyTime = now

	go n.send(captureNotification(ev.Payload, n.lastID), n.sendTimeout)
}

// send delivers one notification and remembers its id.
func (n *DesktopNotifier) send(notification *dbus.DesktopNotification, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	id, err := n.sender.Notify(ctx, notification)
	if err != nil {
		n.logger.Warn("failed to send capture notification", "path", notification.Body, "error", err)
		return
	}

	n.mu.Lock()
	n.lastID = id
	n.mu.Unlock()
}

// captureNotification builds the notification for a capture.
func captureNotification(path string, replaces uint32) *dbus.DesktopNotification {
	return &dbus.DesktopNotification{
		AppName:       config.AppName,
		ReplacesID:    replaces,
		AppIcon:       "camera-photo",
		Summary:       "Screenshot captured",
		Body:          path,
		Actions:       []string{ActionDefault, "Show"},
		Urgency:       dbus.UrgencyLow,
		Category:      "transfer.complete",
		DesktopEntry:  "shotwatchd",
		ImagePath:     path,
		Transient:     true,
		ExpireTimeout: 5000,
	}
}
