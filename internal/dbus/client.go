package dbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// ErrNotRunning means no shotwatchd owns the service name.
var ErrNotRunning = errors.New("shotwatchd is not running")

// Client talks to a running shotwatchd.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Connect opens a private session bus connection.
func Connect() (*Client, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(ServiceBusName, ServicePath),
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// TogglePopover asks the daemon to toggle its popover.
func (c *Client) TogglePopover(ctx context.Context) error {
	call := c.obj.CallWithContext(ctx, ServiceInterface+".TogglePopover", 0)
	return mapError(call.Err)
}

// Status returns the daemon state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	call := c.obj.CallWithContext(ctx, ServiceInterface+".Status", 0)
	if call.Err != nil {
		return st, mapError(call.Err)
	}
	if err := call.Store(&st.State, &st.Root, &st.Mode, &st.Count); err != nil {
		return st, fmt.Errorf("invalid Status reply: %w", err)
	}
	return st, nil
}

// RecentCaptures returns recent captures, newest first.
func (c *Client) RecentCaptures(ctx context.Context) ([]RecentCapture, error) {
	var captures []RecentCapture
	call := c.obj.CallWithContext(ctx, ServiceInterface+".RecentCaptures", 0)
	if call.Err != nil {
		return nil, mapError(call.Err)
	}
	if err := call.Store(&captures); err != nil {
		return nil, fmt.Errorf("invalid RecentCaptures reply: %w", err)
	}
	return captures, nil
}

// Listen calls fn for every ScreenshotCreated signal until ctx is done.
// It does not require the daemon to be running when called.
func (c *Client) Listen(ctx context.Context, fn func(path string)) error {
	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(ServicePath),
		dbus.WithMatchInterface(ServiceInterface),
		dbus.WithMatchMember("ScreenshotCreated"),
	}
	if err := c.conn.AddMatchSignal(opts...); err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}
	defer func() { _ = c.conn.RemoveMatchSignal(opts...) }()

	ch := make(chan *dbus.Signal, 64)
	c.conn.Signal(ch)
	defer c.conn.RemoveSignal(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return errors.New("session bus connection closed")
			}
			if path, ok := screenshotPath(sig); ok {
				fn(path)
			}
		}
	}
}

// screenshotPath extracts the path from a ScreenshotCreated signal.
func screenshotPath(sig *dbus.Signal) (string, bool) {
	if sig == nil || sig.Name != SignalScreenshotCreated || len(sig.Body) != 1 {
		return "", false
	}
	path, ok := sig.Body[0].(string)
	return path, ok
}

// mapError turns "nobody owns the name" into ErrNotRunning.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch errorName(err) {
	case "org.freedesktop.DBus.Error.ServiceUnknown",
		"org.freedesktop.DBus.Error.NameHasNoOwner":
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	return err
}

// errorName returns the D-Bus error name of err, if any.
func errorName(err error) string {
	var derr dbus.Error
	if errors.As(err, &derr) {
		return derr.Name
	}
	var pderr *dbus.Error
	if errors.As(err, &pderr) {
		return pderr.Name
	}
	return ""
}
