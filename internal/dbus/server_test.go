package dbus

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/shotwatch/internal/notify"
)

func TestServiceObject_NoHandlers(t *testing.T) {
	obj := &serviceObject{service: NewService(nil)}

	assert.NotNil(t, obj.TogglePopover())

	state, root, mode, count, derr := obj.Status()
	require.Nil(t, derr)
	assert.Empty(t, state)
	assert.Empty(t, root)
	assert.Empty(t, mode)
	assert.Zero(t, count)

	captures, derr := obj.RecentCaptures()
	require.Nil(t, derr)
	assert.Equal(t, []RecentCapture{}, captures)
}

func TestServiceObject_Handlers(t *testing.T) {
	svc := NewService(nil)
	toggles := 0
	svc.SetHandlers(Handlers{
		Toggle: func() error {
			toggles++
			return nil
		},
		Status: func() Status {
			return Status{State: "visible", Root: "/home/u/Desktop", Mode: "native", Count: 3}
		},
		Recent: func() []RecentCapture {
			return []RecentCapture{
				{Path: "/home/u/Desktop/02.00.00.png", DetectedAt: 1700000200, Source: "native"},
				{Path: "/home/u/Desktop/01.00.00.png", DetectedAt: 1700000100, Source: "native"},
			}
		},
	})
	obj := &serviceObject{service: svc}

	require.Nil(t, obj.TogglePopover())
	assert.Equal(t, 1, toggles)

	state, root, mode, count, derr := obj.Status()
	require.Nil(t, derr)
	assert.Equal(t, "visible", state)
	assert.Equal(t, "/home/u/Desktop", root)
	assert.Equal(t, "native", mode)
	assert.Equal(t, uint32(3), count)

	captures, derr := obj.RecentCaptures()
	require.Nil(t, derr)
	require.Len(t, captures, 2)
	assert.Equal(t, int64(1700000200), captures[0].DetectedAt)
	assert.Equal(t, "native", captures[0].Source)

	// The reply marshals as an array of (sxs) structs.
	assert.Equal(t, "a(sxs)", dbus.SignatureOf(captures).String())
}

func TestServiceObject_ToggleError(t *testing.T) {
	svc := NewService(nil)
	svc.SetHandlers(Handlers{Toggle: func() error { return errors.New("no display") }})

	derr := (&serviceObject{service: svc}).TogglePopover()
	require.NotNil(t, derr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)
}

func TestService_EmitWithoutBus(t *testing.T) {
	svc := NewService(nil)

	err := svc.Emit(notify.TopicScreenshotCreated, "/x/01.02.03.png")
	assert.ErrorIs(t, err, notify.ErrNoListener)

	err = svc.Emit("something-else", "/x/01.02.03.png")
	assert.ErrorIs(t, err, notify.ErrNoListener)

	err = svc.Emit(notify.TopicScreenshotCreated, "/x/\xff.png")
	assert.ErrorIs(t, err, notify.ErrSerializationFailed)

	assert.Zero(t, svc.Emitted())
	assert.False(t, svc.IsRunning())
}

func TestScreenshotPath(t *testing.T) {
	tests := []struct {
		name   string
		sig    *dbus.Signal
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"valid", &dbus.Signal{Name: SignalScreenshotCreated, Body: []any{"/x/01.02.03.png"}}, "/x/01.02.03.png", true},
		{"other member", &dbus.Signal{Name: ServiceInterface + ".Other", Body: []any{"/x"}}, "", false},
		{"wrong body type", &dbus.Signal{Name: SignalScreenshotCreated, Body: []any{uint32(1)}}, "", false},
		{"empty body", &dbus.Signal{Name: SignalScreenshotCreated}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := screenshotPath(tt.sig)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	unknown := dbus.Error{Name: "org.freedesktop.DBus.Error.ServiceUnknown", Body: []any{"not provided"}}
	assert.ErrorIs(t, mapError(unknown), ErrNotRunning)

	failed := dbus.Error{Name: "org.freedesktop.DBus.Error.Failed", Body: []any{"boom"}}
	assert.NotErrorIs(t, mapError(failed), ErrNotRunning)

	plain := errors.New("plain")
	assert.Equal(t, plain, mapError(plain))
}
