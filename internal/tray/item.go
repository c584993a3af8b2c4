package tray

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

const (
	// ItemInterface is the StatusNotifierItem interface name.
	ItemInterface = "org.kde.StatusNotifierItem"
	// ItemPath is the object path of the tray item.
	ItemPath = dbus.ObjectPath("/StatusNotifierItem")

	// WatcherName is the StatusNotifierWatcher bus name and interface.
	WatcherName = "org.kde.StatusNotifierWatcher"
	// WatcherPath is the StatusNotifierWatcher object path.
	WatcherPath = dbus.ObjectPath("/StatusNotifierWatcher")

	// ItemID identifies the tray icon.
	ItemID = "tray-1"
)

var errUnknownItem = errors.New("unknown menu item")

// pixmap is one (iiay) ARGB32 icon image.
type pixmap struct {
	Width  int32
	Height int32
	Data   []byte
}

// toolTip is the (sa(iiay)ss) ToolTip property.
type toolTip struct {
	IconName   string
	IconPixmap []pixmap
	Title      string
	Text       string
}

// ItemOptions configures the tray item.
type ItemOptions struct {
	Title    string
	Tooltip  string
	IconName string
	// Handler receives tray events on the D-Bus goroutine.
	Handler func(Event)
}

// Item is a StatusNotifierItem exported on its own session bus connection.
type Item struct {
	mu     sync.Mutex
	logger *slog.Logger
	opts   ItemOptions

	conn    *dbus.Conn
	props   *prop.Properties
	menu    *menu
	busName string

	signals chan *dbus.Signal
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewItem creates a tray item. Call Start to export it.
func NewItem(opts ItemOptions, logger *slog.Logger) *Item {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = "shotwatch"
	}
	return &Item{
		logger: logger,
		opts:   opts,
		menu:   newMenu(opts.Handler),
	}
}

// itemObject carries the exported StatusNotifierItem methods.
type itemObject struct {
	handler func(Event)
}

func (o itemObject) emit(ev Event) {
	if o.handler != nil {
		o.handler(ev)
	}
}

// Activate is a primary (left) click.
// D-Bus method: Activate(ii)
func (o itemObject) Activate(x, y int32) *dbus.Error {
	o.emit(ClickEvent{Button: ButtonLeft, State: ButtonUp, X: int(x), Y: int(y)})
	return nil
}

// SecondaryActivate is a middle click.
// D-Bus method: SecondaryActivate(ii)
func (o itemObject) SecondaryActivate(x, y int32) *dbus.Error {
	o.emit(ClickEvent{Button: ButtonMiddle, State: ButtonUp, X: int(x), Y: int(y)})
	return nil
}

// ContextMenu is a right click on hosts that do not render the menu.
// D-Bus method: ContextMenu(ii)
func (o itemObject) ContextMenu(x, y int32) *dbus.Error {
	o.emit(ClickEvent{Button: ButtonRight, State: ButtonUp, X: int(x), Y: int(y)})
	return nil
}

// Scroll is a scroll over the icon.
// D-Bus method: Scroll(is)
func (o itemObject) Scroll(delta int32, orientation string) *dbus.Error {
	o.emit(ScrollEvent{Delta: int(delta), Orientation: orientation})
	return nil
}

// itemProperties returns the StatusNotifierItem property map.
func (i *Item) itemProperties() map[string]*prop.Prop {
	ro := func(v any) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitTrue}
	}
	return map[string]*prop.Prop{
		"Category":            ro("ApplicationStatus"),
		"Id":                  ro(ItemID),
		"Title":               ro(i.opts.Title),
		"Status":              ro("Active"),
		"WindowId":            ro(int32(0)),
		"IconName":            ro(i.opts.IconName),
		"IconPixmap":          ro([]pixmap{}),
		"OverlayIconName":     ro(""),
		"OverlayIconPixmap":   ro([]pixmap{}),
		"AttentionIconName":   ro(""),
		"AttentionIconPixmap": ro([]pixmap{}),
		"AttentionMovieName":  ro(""),
		"ToolTip":             ro(i.toolTip()),
		"ItemIsMenu":          ro(false),
		"Menu":                ro(MenuPath),
	}
}

func (i *Item) toolTip() toolTip {
	return toolTip{
		IconName:   i.opts.IconName,
		IconPixmap: []pixmap{},
		Title:      i.opts.Tooltip,
	}
}

// Start connects to the session bus, exports the item and its menu, and
// registers with the StatusNotifierWatcher. A missing watcher is not an
// error: the item registers when one appears.
func (i *Item) Start() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.running {
		return fmt.Errorf("tray item already running")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := i.exportLocked(conn); err != nil {
		_ = conn.Close()
		return err
	}

	i.busName = fmt.Sprintf("org.kde.StatusNotifierItem-%d-1", os.Getpid())
	reply, err := conn.RequestName(i.busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return fmt.Errorf("bus name %s already taken", i.busName)
	}

	// Re-register whenever a watcher (re)appears, e.g. after a panel restart.
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, WatcherName),
	); err != nil {
		i.logger.Warn("failed to watch for tray host restarts", "error", err)
	}
	i.signals = make(chan *dbus.Signal, 8)
	conn.Signal(i.signals)

	i.conn = conn
	i.running = true
	i.stopCh = make(chan struct{})
	i.doneCh = make(chan struct{})
	go i.signalLoop(i.signals, i.stopCh, i.doneCh)

	if err := i.registerLocked(); err != nil {
		i.logger.Warn("no tray host available yet", "error", err)
	}

	i.logger.Info("tray item started", "bus_name", i.busName, "path", ItemPath)
	return nil
}

// exportLocked exports the item, its properties, the menu and the
// introspection data on conn.
func (i *Item) exportLocked(conn *dbus.Conn) error {
	if err := conn.Export(itemObject{handler: i.opts.Handler}, ItemPath, ItemInterface); err != nil {
		return fmt.Errorf("failed to export tray item: %w", err)
	}

	props, err := prop.Export(conn, ItemPath, prop.Map{ItemInterface: i.itemProperties()})
	if err != nil {
		return fmt.Errorf("failed to export tray item properties: %w", err)
	}
	i.props = props

	itemNode := &introspect.Node{
		Name: string(ItemPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       ItemInterface,
				Methods:    itemMethods(),
				Signals:    itemSignals(),
				Properties: props.Introspection(ItemInterface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(itemNode), ItemPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	if err := conn.Export(i.menu, MenuPath, MenuInterface); err != nil {
		return fmt.Errorf("failed to export menu: %w", err)
	}

	menuProps := make(map[string]*prop.Prop)
	for name, v := range menuProperties() {
		menuProps[name] = &prop.Prop{Value: v, Writable: false, Emit: prop.EmitFalse}
	}
	mp, err := prop.Export(conn, MenuPath, prop.Map{MenuInterface: menuProps})
	if err != nil {
		return fmt.Errorf("failed to export menu properties: %w", err)
	}

	menuNode := &introspect.Node{
		Name: string(MenuPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       MenuInterface,
				Methods:    menuMethods(),
				Signals:    menuSignals(),
				Properties: mp.Introspection(MenuInterface),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(menuNode), MenuPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export menu introspectable: %w", err)
	}

	return nil
}

// registerLocked announces the item to the StatusNotifierWatcher.
func (i *Item) registerLocked() error {
	obj := i.conn.Object(WatcherName, WatcherPath)
	call := obj.Call(WatcherName+".RegisterStatusNotifierItem", 0, i.busName)
	if call.Err != nil {
		return fmt.Errorf("failed to register with %s: %w", WatcherName, call.Err)
	}
	i.logger.Debug("registered with tray host", "watcher", WatcherName)
	return nil
}

// signalLoop re-registers when a new watcher owner appears.
func (i *Item) signalLoop(signals chan *dbus.Signal, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		select {
		case <-stopCh:
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			if sig.Name != "org.freedesktop.DBus.NameOwnerChanged" || len(sig.Body) != 3 {
				continue
			}
			name, _ := sig.Body[0].(string)
			newOwner, _ := sig.Body[2].(string)
			if name != WatcherName || newOwner == "" {
				continue
			}

			i.mu.Lock()
			if i.running {
				if err := i.registerLocked(); err != nil {
					i.logger.Warn("failed to re-register tray item", "error", err)
				}
			}
			i.mu.Unlock()
		}
	}
}

// SetTooltip updates the tooltip text and notifies the host.
func (i *Item) SetTooltip(text string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.opts.Tooltip == text {
		return
	}
	i.opts.Tooltip = text
	if !i.running {
		return
	}
	i.props.SetMust(ItemInterface, "ToolTip", i.toolTip())
	if err := i.conn.Emit(ItemPath, ItemInterface+".NewToolTip"); err != nil {
		i.logger.Debug("failed to emit NewToolTip", "error", err)
	}
}

// SetIconName updates the icon and notifies the host.
func (i *Item) SetIconName(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.opts.IconName == name {
		return
	}
	i.opts.IconName = name
	if !i.running {
		return
	}
	i.props.SetMust(ItemInterface, "IconName", name)
	i.props.SetMust(ItemInterface, "ToolTip", i.toolTip())
	if err := i.conn.Emit(ItemPath, ItemInterface+".NewIcon"); err != nil {
		i.logger.Debug("failed to emit NewIcon", "error", err)
	}
}

// Stop releases the bus name and closes the item's connection.
func (i *Item) Stop() error {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return nil
	}
	i.running = false
	close(i.stopCh)
	conn := i.conn
	doneCh := i.doneCh
	i.mu.Unlock()

	<-doneCh
	conn.RemoveSignal(i.signals)
	if _, err := conn.ReleaseName(i.busName); err != nil {
		i.logger.Warn("failed to release bus name", "error", err)
	}

	i.logger.Info("tray item stopped")
	return conn.Close()
}

// itemMethods returns the StatusNotifierItem method introspection data.
func itemMethods() []introspect.Method {
	xy := []introspect.Arg{
		{Name: "x", Type: "i", Direction: "in"},
		{Name: "y", Type: "i", Direction: "in"},
	}
	return []introspect.Method{
		{Name: "Activate", Args: xy},
		{Name: "SecondaryActivate", Args: xy},
		{Name: "ContextMenu", Args: xy},
		{
			Name: "Scroll",
			Args: []introspect.Arg{
				{Name: "delta", Type: "i", Direction: "in"},
				{Name: "orientation", Type: "s", Direction: "in"},
			},
		},
	}
}

// itemSignals returns the StatusNotifierItem signal introspection data.
func itemSignals() []introspect.Signal {
	return []introspect.Signal{
		{Name: "NewTitle"},
		{Name: "NewIcon"},
		{Name: "NewAttentionIcon"},
		{Name: "NewOverlayIcon"},
		{Name: "NewToolTip"},
		{
			Name: "NewStatus",
			Args: []introspect.Arg{
				{Name: "status", Type: "s"},
			},
		},
	}
}
