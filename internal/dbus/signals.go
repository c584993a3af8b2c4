package dbus

import (
	"github.com/jmylchreest/shotwatch/internal/notify"
)

// SignalScreenshotCreated is the fully qualified signal name.
const SignalScreenshotCreated = ServiceInterface + ".ScreenshotCreated"

// Emit implements notify.Sink by broadcasting the ScreenshotCreated signal.
// Only the screenshot-created topic is carried on the bus; other topics and
// a stopped service report notify.ErrNoListener.
func (s *Service) Emit(topic, payload string) error {
	if topic != notify.TopicScreenshotCreated {
		return notify.NoListener(topic, payload)
	}
	if err := notify.CheckPayload(topic, payload); err != nil {
		return err
	}

	s.mu.RLock()
	conn := s.conn
	running := s.running
	s.mu.RUnlock()

	if !running || conn == nil {
		return notify.NoListener(topic, payload)
	}

	if err := conn.Emit(ServicePath, SignalScreenshotCreated, payload); err != nil {
		return notify.SerializationFailed(topic, payload, err)
	}

	s.emitted.Add(1)
	s.logger.Debug("emitted ScreenshotCreated signal", "path", payload)
	return nil
}
