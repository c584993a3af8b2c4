package tray

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMenu_GetLayout(t *testing.T) {
	m := newMenu(nil)

	rev, layout, derr := m.GetLayout(0, -1, nil)
	require.Nil(t, derr)
	assert.Equal(t, uint32(1), rev)
	assert.Equal(t, int32(0), layout.ID)
	assert.Equal(t, "submenu", layout.Properties["children-display"].Value())
	require.Len(t, layout.Children, 1)

	child, ok := layout.Children[0].Value().(menuLayout)
	require.True(t, ok)
	assert.Equal(t, int32(1), child.ID)
	assert.Equal(t, "Quit", child.Properties["label"].Value())
	assert.Equal(t, true, child.Properties["enabled"].Value())
}

func TestMenu_GetLayoutDepthZero(t *testing.T) {
	_, layout, derr := newMenu(nil).GetLayout(0, 0, []string{"children-display"})
	require.Nil(t, derr)
	assert.Empty(t, layout.Children)
	assert.Len(t, layout.Properties, 1)
}

func TestMenu_GetLayoutUnknownParent(t *testing.T) {
	_, _, derr := newMenu(nil).GetLayout(42, -1, nil)
	assert.NotNil(t, derr)
}

func TestMenu_ClickQuit(t *testing.T) {
	var got []Event
	m := newMenu(func(ev Event) { got = append(got, ev) })

	require.Nil(t, m.Event(1, "hovered", dbus.MakeVariant(""), 0))
	require.Nil(t, m.Event(1, "clicked", dbus.MakeVariant(""), 0))

	assert.Equal(t, []Event{MenuEvent{ID: MenuQuit}}, got)
}

func TestMenu_ClickUnknown(t *testing.T) {
	var got []Event
	m := newMenu(func(ev Event) { got = append(got, ev) })

	assert.NotNil(t, m.Event(7, "clicked", dbus.MakeVariant(""), 0))
	assert.Empty(t, got)
}

func TestMenu_EventGroup(t *testing.T) {
	var got []Event
	m := newMenu(func(ev Event) { got = append(got, ev) })

	notFound, derr := m.EventGroup([]menuEvent{
		{ID: 1, EventID: "clicked", Data: dbus.MakeVariant("")},
		{ID: 9, EventID: "clicked", Data: dbus.MakeVariant("")},
	})
	require.Nil(t, derr)
	assert.Equal(t, []int32{9}, notFound)
	assert.Len(t, got, 1)
}

func TestMenu_GetGroupProperties(t *testing.T) {
	m := newMenu(nil)

	props, derr := m.GetGroupProperties(nil, []string{"label"})
	require.Nil(t, derr)
	require.Len(t, props, 2)
	assert.Equal(t, int32(1), props[1].ID)
	assert.Equal(t, "Quit", props[1].Properties["label"].Value())

	v, derr := m.GetProperty(1, "visible")
	require.Nil(t, derr)
	assert.Equal(t, true, v.Value())

	_, derr = m.GetProperty(1, "shortcut")
	assert.NotNil(t, derr)
}

func TestItemObject_ActivateIsLeftRelease(t *testing.T) {
	var got []Event
	obj := itemObject{handler: func(ev Event) { got = append(got, ev) }}

	require.Nil(t, obj.Activate(100, 5))
	require.Nil(t, obj.SecondaryActivate(1, 1))
	require.Nil(t, obj.Scroll(3, "vertical"))

	assert.Equal(t, []Event{
		ClickEvent{Button: ButtonLeft, State: ButtonUp, X: 100, Y: 5},
		ClickEvent{Button: ButtonMiddle, State: ButtonUp, X: 1, Y: 1},
		ScrollEvent{Delta: 3, Orientation: "vertical"},
	}, got)
}

func TestItemObject_ActivateDrivesController(t *testing.T) {
	p := &fakePopover{}
	rec := &exitRecorder{}
	c := NewController(p, rec.exit, nil)

	obj := itemObject{handler: c.Handle}
	require.Nil(t, obj.Activate(0, 0))
	require.Nil(t, obj.ContextMenu(0, 0))
	assert.Equal(t, 1, p.toggles)

	m := newMenu(c.Handle)
	require.Nil(t, m.Event(1, "clicked", dbus.MakeVariant(""), 0))
	assert.Equal(t, []int{0}, rec.codes)
}
