package dbus

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

const (
	// ServiceInterface is the shotwatch interface name.
	ServiceInterface = "io.github.jmylchreest.Shotwatch"
	// ServicePath is the shotwatch object path.
	ServicePath = dbus.ObjectPath("/io/github/jmylchreest/Shotwatch")
	// ServiceBusName is the bus name to claim.
	ServiceBusName = "io.github.jmylchreest.Shotwatch"
)

// ErrNameTaken means another shotwatchd already owns the bus name.
var ErrNameTaken = errors.New("bus name already taken")

// Handlers answer the service's method calls. They run on godbus
// goroutines; handlers that touch the UI must schedule onto the main loop.
type Handlers struct {
	Toggle func() error
	Status func() Status
	Recent func() []RecentCapture
}

// Service exports io.github.jmylchreest.Shotwatch on the session bus.
type Service struct {
	conn   *dbus.Conn
	logger *slog.Logger

	mu       sync.RWMutex
	handlers Handlers
	running  bool

	emitted atomic.Uint64
}

// NewService creates a new Service.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger: logger,
	}
}

// SetHandlers sets the method call handlers.
func (s *Service) SetHandlers(h Handlers) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = h
}

// Start connects to the session bus and exports the service.
func (s *Service) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("service already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(&serviceObject{service: s}, ServicePath, ServiceInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: string(ServicePath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    ServiceInterface,
				Methods: serviceMethods(),
				Signals: serviceSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ServicePath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(ServiceBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Export(nil, ServicePath, ServiceInterface)
		return fmt.Errorf("%w: %s", ErrNameTaken, ServiceBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus service started", "interface", ServiceInterface, "path", ServicePath)
	return nil
}

// Stop releases the bus name.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(ServiceBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus service stopped")
	return nil
}

// IsRunning reports whether the service is exported.
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Emitted returns the number of ScreenshotCreated signals sent.
func (s *Service) Emitted() uint64 {
	return s.emitted.Load()
}

// serviceObject carries the exported methods so that Service's own
// lifecycle methods are not callable over the bus.
type serviceObject struct {
	service *Service
}

func (o *serviceObject) handlers() Handlers {
	o.service.mu.RLock()
	defer o.service.mu.RUnlock()
	return o.service.handlers
}

// TogglePopover toggles the popover window.
// D-Bus method: TogglePopover()
func (o *serviceObject) TogglePopover() *dbus.Error {
	o.service.logger.Debug("TogglePopover called")

	h := o.handlers()
	if h.Toggle == nil {
		return dbus.MakeFailedError(errors.New("popover not available"))
	}
	if err := h.Toggle(); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Status returns the daemon state.
// D-Bus method: Status() -> (sssu)
func (o *serviceObject) Status() (string, string, string, uint32, *dbus.Error) {
	o.service.logger.Debug("Status called")

	h := o.handlers()
	if h.Status == nil {
		return "", "", "", 0, nil
	}
	st := h.Status()
	return st.State, st.Root, st.Mode, st.Count, nil
}

// RecentCaptures returns recent captures, newest first.
// D-Bus method: RecentCaptures() -> a(sxs)
func (o *serviceObject) RecentCaptures() ([]RecentCapture, *dbus.Error) {
	o.service.logger.Debug("RecentCaptures called")

	h := o.handlers()
	if h.Recent == nil {
		return []RecentCapture{}, nil
	}
	captures := h.Recent()
	if captures == nil {
		captures = []RecentCapture{}
	}
	return captures, nil
}

// serviceMethods returns the D-Bus method introspection data.
func serviceMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "TogglePopover",
		},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "state", Type: "s", Direction: "out"},
				{Name: "root", Type: "s", Direction: "out"},
				{Name: "mode", Type: "s", Direction: "out"},
				{Name: "count", Type: "u", Direction: "out"},
			},
		},
		{
			Name: "RecentCaptures",
			Args: []introspect.Arg{
				{Name: "captures", Type: "a(sxs)", Direction: "out"},
			},
		},
	}
}

// serviceSignals returns the D-Bus signal introspection data.
func serviceSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "ScreenshotCreated",
			Args: []introspect.Arg{
				{Name: "path", Type: "s"},
			},
		},
	}
}
