package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	// NotificationsInterface is the freedesktop notification interface name.
	NotificationsInterface = "org.freedesktop.Notifications"
	// NotificationsPath is the freedesktop notification object path.
	NotificationsPath = dbus.ObjectPath("/org/freedesktop/Notifications")
)

// ActionHandler is called when the user invokes an action on one of our
// notifications.
type ActionHandler func(id uint32, actionKey string)

// NotificationClient sends desktop notifications through whichever
// notification daemon owns org.freedesktop.Notifications.
type NotificationClient struct {
	conn   *dbus.Conn
	logger *slog.Logger

	mu       sync.Mutex
	sent     map[uint32]struct{}
	onAction ActionHandler
	signals  chan *dbus.Signal
	doneCh   chan struct{}
}

// NewNotificationClient connects to the session bus.
func NewNotificationClient(logger *slog.Logger) (*NotificationClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &NotificationClient{
		conn:   conn,
		logger: logger,
		sent:   make(map[uint32]struct{}),
	}, nil
}

// SetActionHandler starts listening for ActionInvoked signals and calls
// handler for notifications sent by this client.
func (c *NotificationClient) SetActionHandler(handler ActionHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onAction = handler
	if c.signals != nil {
		return nil
	}

	if err := c.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(NotificationsPath),
		dbus.WithMatchInterface(NotificationsInterface),
	); err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	c.signals = make(chan *dbus.Signal, 16)
	c.doneCh = make(chan struct{})
	c.conn.Signal(c.signals)
	go c.processSignals(c.signals, c.doneCh)
	return nil
}

// Notify sends n and returns the server-assigned id. ctx bounds the wait
// for the notification server.
func (c *NotificationClient) Notify(ctx context.Context, n *DesktopNotification) (uint32, error) {
	obj := c.conn.Object(NotificationsInterface, NotificationsPath)
	call := obj.CallWithContext(ctx, NotificationsInterface+".Notify", 0,
		n.AppName,
		n.ReplacesID,
		n.AppIcon,
		n.Summary,
		n.Body,
		n.actions(),
		n.Hints(),
		n.ExpireTimeout,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("invalid Notify reply: %w", err)
	}

	c.mu.Lock()
	c.sent[id] = struct{}{}
	c.mu.Unlock()

	c.logger.Debug("sent desktop notification", "id", id, "summary", n.Summary)
	return id, nil
}

// processSignals dispatches ActionInvoked and forgets closed notifications.
func (c *NotificationClient) processSignals(ch chan *dbus.Signal, doneCh chan struct{}) {
	defer close(doneCh)

	for sig := range ch {
		switch sig.Name {
		case NotificationsInterface + ".ActionInvoked":
			if len(sig.Body) < 2 {
				continue
			}
			id, ok1 := sig.Body[0].(uint32)
			key, ok2 := sig.Body[1].(string)
			if !ok1 || !ok2 {
				c.logger.Warn("malformed ActionInvoked signal")
				continue
			}

			c.mu.Lock()
			_, ours := c.sent[id]
			handler := c.onAction
			c.mu.Unlock()

			if ours && handler != nil {
				handler(id, key)
			}

		case NotificationsInterface + ".NotificationClosed":
			if len(sig.Body) < 1 {
				continue
			}
			if id, ok := sig.Body[0].(uint32); ok {
				c.mu.Lock()
				delete(c.sent, id)
				c.mu.Unlock()
			}
		}
	}
}

// Close stops listening and closes the connection.
func (c *NotificationClient) Close() error {
	c.mu.Lock()
	signals := c.signals
	doneCh := c.doneCh
	c.signals = nil
	c.mu.Unlock()

	if signals != nil {
		c.conn.RemoveSignal(signals)
		close(signals)
		<-doneCh
	}
	return c.conn.Close()
}
