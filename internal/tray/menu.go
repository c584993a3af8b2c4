package tray

import (
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// MenuInterface is the dbusmenu interface name.
	MenuInterface = "com.canonical.dbusmenu"
	// MenuPath is the object path of the exported menu.
	MenuPath = dbus.ObjectPath("/MenuBar")

	menuVersion = uint32(3)
)

// menuLayout is the recursive (ia{sv}av) layout node.
type menuLayout struct {
	ID         int32
	Properties map[string]dbus.Variant
	Children   []dbus.Variant
}

// menuItemProperties is one (ia{sv}) entry of GetGroupProperties.
type menuItemProperties struct {
	ID         int32
	Properties map[string]dbus.Variant
}

// menuEvent is one (isvu) entry of EventGroup.
type menuEvent struct {
	ID        int32
	EventID   string
	Data      dbus.Variant
	Timestamp uint32
}

// menuItem is a flat menu entry below the root.
type menuItem struct {
	id    int32
	key   string
	label string
}

// menu implements com.canonical.dbusmenu for a flat list of items.
type menu struct {
	mu       sync.RWMutex
	items    []menuItem
	revision uint32
	handler  func(Event)
}

func newMenu(handler func(Event)) *menu {
	return &menu{
		items: []menuItem{
			{id: 1, key: MenuQuit, label: "Quit"},
		},
		revision: 1,
		handler:  handler,
	}
}

func (m *menu) rootProperties() map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"children-display": dbus.MakeVariant("submenu"),
	}
}

func (m *menu) itemProperties(it menuItem) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"type":    dbus.MakeVariant("standard"),
		"label":   dbus.MakeVariant(it.label),
		"enabled": dbus.MakeVariant(true),
		"visible": dbus.MakeVariant(true),
	}
}

// propertiesFor returns the properties of id, or nil for unknown ids.
func (m *menu) propertiesFor(id int32) map[string]dbus.Variant {
	if id == 0 {
		return m.rootProperties()
	}
	for _, it := range m.items {
		if it.id == id {
			return m.itemProperties(it)
		}
	}
	return nil
}

// filter keeps only the requested property names; an empty list keeps all.
func filter(props map[string]dbus.Variant, names []string) map[string]dbus.Variant {
	if len(names) == 0 {
		return props
	}
	out := make(map[string]dbus.Variant, len(names))
	for _, name := range names {
		if v, ok := props[name]; ok {
			out[name] = v
		}
	}
	return out
}

// GetLayout returns the menu tree below parentID.
// D-Bus method: GetLayout(iias) -> (u(ia{sv}av))
func (m *menu) GetLayout(parentID int32, recursionDepth int32, propertyNames []string) (uint32, menuLayout, *dbus.Error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	props := m.propertiesFor(parentID)
	if props == nil {
		return 0, menuLayout{}, dbus.MakeFailedError(errUnknownItem)
	}

	layout := menuLayout{
		ID:         parentID,
		Properties: filter(props, propertyNames),
		Children:   []dbus.Variant{},
	}
	if parentID == 0 && recursionDepth != 0 {
		for _, it := range m.items {
			layout.Children = append(layout.Children, dbus.MakeVariant(menuLayout{
				ID:         it.id,
				Properties: filter(m.itemProperties(it), propertyNames),
				Children:   []dbus.Variant{},
			}))
		}
	}
	return m.revision, layout, nil
}

// GetGroupProperties returns properties for several items.
// D-Bus method: GetGroupProperties(aias) -> a(ia{sv})
func (m *menu) GetGroupProperties(ids []int32, propertyNames []string) ([]menuItemProperties, *dbus.Error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(ids) == 0 {
		ids = []int32{0}
		for _, it := range m.items {
			ids = append(ids, it.id)
		}
	}

	out := make([]menuItemProperties, 0, len(ids))
	for _, id := range ids {
		if props := m.propertiesFor(id); props != nil {
			out = append(out, menuItemProperties{ID: id, Properties: filter(props, propertyNames)})
		}
	}
	return out, nil
}

// GetProperty returns one property of one item.
// D-Bus method: GetProperty(is) -> v
func (m *menu) GetProperty(id int32, name string) (dbus.Variant, *dbus.Error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.propertiesFor(id)[name]
	if !ok {
		return dbus.Variant{}, dbus.MakeFailedError(errUnknownItem)
	}
	return v, nil
}

// Event delivers a menu event.
// D-Bus method: Event(isvu)
func (m *menu) Event(id int32, eventID string, data dbus.Variant, timestamp uint32) *dbus.Error {
	if eventID != "clicked" {
		return nil
	}

	m.mu.RLock()
	var key string
	for _, it := range m.items {
		if it.id == id {
			key = it.key
		}
	}
	m.mu.RUnlock()

	if key == "" {
		return dbus.MakeFailedError(errUnknownItem)
	}
	if m.handler != nil {
		m.handler(MenuEvent{ID: key})
	}
	return nil
}

// EventGroup delivers several events and returns the ids that were not found.
// D-Bus method: EventGroup(a(isvu)) -> ai
func (m *menu) EventGroup(events []menuEvent) ([]int32, *dbus.Error) {
	var notFound []int32
	for _, ev := range events {
		if err := m.Event(ev.ID, ev.EventID, ev.Data, ev.Timestamp); err != nil {
			notFound = append(notFound, ev.ID)
		}
	}
	if notFound == nil {
		notFound = []int32{}
	}
	return notFound, nil
}

// AboutToShow reports whether the layout needs refreshing; it never does.
// D-Bus method: AboutToShow(i) -> b
func (m *menu) AboutToShow(id int32) (bool, *dbus.Error) {
	return false, nil
}

// AboutToShowGroup is AboutToShow for several items.
// D-Bus method: AboutToShowGroup(ai) -> (ai, ai)
func (m *menu) AboutToShowGroup(ids []int32) ([]int32, []int32, *dbus.Error) {
	return []int32{}, []int32{}, nil
}

// menuProperties are the read-only dbusmenu properties.
func menuProperties() map[string]any {
	return map[string]any{
		"Version":       menuVersion,
		"TextDirection": "ltr",
		"Status":        "normal",
		"IconThemePath": []string{},
	}
}

// menuMethods returns the dbusmenu introspection data.
func menuMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "GetLayout",
			Args: []introspect.Arg{
				{Name: "parentId", Type: "i", Direction: "in"},
				{Name: "recursionDepth", Type: "i", Direction: "in"},
				{Name: "propertyNames", Type: "as", Direction: "in"},
				{Name: "revision", Type: "u", Direction: "out"},
				{Name: "layout", Type: "(ia{sv}av)", Direction: "out"},
			},
		},
		{
			Name: "GetGroupProperties",
			Args: []introspect.Arg{
				{Name: "ids", Type: "ai", Direction: "in"},
				{Name: "propertyNames", Type: "as", Direction: "in"},
				{Name: "properties", Type: "a(ia{sv})", Direction: "out"},
			},
		},
		{
			Name: "GetProperty",
			Args: []introspect.Arg{
				{Name: "id", Type: "i", Direction: "in"},
				{Name: "name", Type: "s", Direction: "in"},
				{Name: "value", Type: "v", Direction: "out"},
			},
		},
		{
			Name: "Event",
			Args: []introspect.Arg{
				{Name: "id", Type: "i", Direction: "in"},
				{Name: "eventId", Type: "s", Direction: "in"},
				{Name: "data", Type: "v", Direction: "in"},
				{Name: "timestamp", Type: "u", Direction: "in"},
			},
		},
		{
			Name: "EventGroup",
			Args: []introspect.Arg{
				{Name: "events", Type: "a(isvu)", Direction: "in"},
				{Name: "idErrors", Type: "ai", Direction: "out"},
			},
		},
		{
			Name: "AboutToShow",
			Args: []introspect.Arg{
				{Name: "id", Type: "i", Direction: "in"},
				{Name: "needUpdate", Type: "b", Direction: "out"},
			},
		},
		{
			Name: "AboutToShowGroup",
			Args: []introspect.Arg{
				{Name: "ids", Type: "ai", Direction: "in"},
				{Name: "updatesNeeded", Type: "ai", Direction: "out"},
				{Name: "idErrors", Type: "ai", Direction: "out"},
			},
		},
	}
}

// menuSignals returns the dbusmenu signal introspection data.
func menuSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "ItemsPropertiesUpdated",
			Args: []introspect.Arg{
				{Name: "updatedProps", Type: "a(ia{sv})"},
				{Name: "removedProps", Type: "a(ias)"},
			},
		},
		{
			Name: "LayoutUpdated",
			Args: []introspect.Arg{
				{Name: "revision", Type: "u"},
				{Name: "parent", Type: "i"},
			},
		},
	}
}
