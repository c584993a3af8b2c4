package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/shotwatch/internal/config"
	"github.com/jmylchreest/shotwatch/internal/dbus"
	"github.com/jmylchreest/shotwatch/internal/notify"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []*dbus.DesktopNotification
	calls int
	err   error
}

func (f *fakeSender) Notify(_ context.Context, n *dbus.DesktopNotification) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	f.sent = append(f.sent, n)
	return uint32(len(f.sent)), nil
}

func (f *fakeSender) Sent() []*dbus.DesktopNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*dbus.DesktopNotification(nil), f.sent...)
}

func (f *fakeSender) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// hangingSender blocks until the call's context ends.
type hangingSender struct {
	done chan error
}

func (h *hangingSender) Notify(ctx context.Context, _ *dbus.DesktopNotification) (uint32, error) {
	<-ctx.Done()
	h.done <- ctx.Err()
	return 0, ctx.Err()
}

func captureEvent(path string) notify.Event {
	return notify.Event{Topic: notify.TopicScreenshotCreated, Payload: path}
}

func TestDesktopNotifier_DisabledByDefault(t *testing.T) {
	sender := &fakeSender{}
	n := NewDesktopNotifier(sender, nil)

	n.OnCapture(captureEvent("/x/01.02.03.png"))
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, sender.Calls())
}

func TestDesktopNotifier_RateLimitAndReplace(t *testing.T) {
	sender := &fakeSender{}
	n := NewDesktopNotifier(sender, nil)

	cfg := config.DefaultDaemonConfig()
	cfg.Notify.Desktop = true
	n.Apply(cfg)

	now := time.Unix(1000, 0)
	n.now = func() time.Time { return now }

	n.OnCapture(captureEvent("/x/01.02.03.png"))
	n.OnCapture(captureEvent("/x/01.02.04.png"))
	require.Eventually(t, func() bool {
		return len(sender.Sent()) == 1
	}, time.Second, 5*time.Millisecond)

	// The id is recorded after the send completes.
	require.Eventually(t, func() bool {
		n.mu.Lock()
		defer n.mu.Unlock()
		return n.lastID == 1
	}, time.Second, 5*time.Millisecond)

	first := sender.Sent()[0]
	assert.Equal(t, "shotwatch", first.AppName)
	assert.Equal(t, "/x/01.02.03.png", first.Body)
	assert.Equal(t, "/x/01.02.03.png", first.ImagePath)
	assert.Equal(t, uint32(0), first.ReplacesID)
	assert.Equal(t, []string{ActionDefault, "Show"}, first.Actions)

	now = now.Add(2 * time.Second)
	n.OnCapture(captureEvent("/x/01.02.05.png"))
	require.Eventually(t, func() bool {
		return len(sender.Sent()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint32(1), sender.Sent()[1].ReplacesID)
	assert.Equal(t, 2, sender.Calls())
}

func TestDesktopNotifier_HungServerDoesNotBlock(t *testing.T) {
	sender := &hangingSender{done: make(chan error, 1)}
	n := NewDesktopNotifier(sender, nil)
	n.SetEnabled(true)
	n.sendTimeout = 50 * time.Millisecond

	returned := make(chan struct{})
	go func() {
		n.OnCapture(captureEvent("/x/01.02.03.png"))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("OnCapture blocked on the notification server")
	}

	select {
	case err := <-sender.done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("notification call was not bounded by a timeout")
	}
}

func TestDesktopNotifier_SendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("no notification daemon")}
	n := NewDesktopNotifier(sender, nil)
	n.SetEnabled(true)

	n.OnCapture(captureEvent("/x/01.02.03.png"))
	require.Eventually(t, func() bool {
		return sender.Calls() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, sender.Sent())

	n.mu.Lock()
	assert.Zero(t, n.lastID)
	n.mu.Unlock()
}

func TestDesktopNotifier_HandleAction(t *testing.T) {
	n := NewDesktopNotifier(nil, nil)

	activated := 0
	n.SetActivateHandler(func() { activated++ })

	n.HandleAction(7, ActionDefault)
	n.HandleAction(7, "dismiss")
	assert.Equal(t, 1, activated)
}
