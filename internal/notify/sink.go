// Package notify carries qualifying-path notifications from the watcher to
// whoever presents them.
package notify

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// TopicScreenshotCreated is emitted once per qualifying file creation.
// The payload is the absolute path of the file.
const TopicScreenshotCreated = "screenshot-created"

// Sink delivers a notification across the watcher boundary. Emit must be
// safe to call from any goroutine.
type Sink interface {
	Emit(topic, payload string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(topic, payload string) error

// Emit calls f(topic, payload).
func (f SinkFunc) Emit(topic, payload string) error {
	return f(topic, payload)
}

// Emit failure kinds.
var (
	// ErrNoListener means nothing was attached to receive the notification.
	ErrNoListener = errors.New("no listener attached")
	// ErrSerializationFailed means the payload could not be encoded for the
	// receiving side.
	ErrSerializationFailed = errors.New("payload serialization failed")
)

// EmitError describes a failed Emit.
type EmitError struct {
	Kind    error // ErrNoListener or ErrSerializationFailed
	Topic   string
	Payload string
	Cause   error
}

func (e *EmitError) Error() string {
	msg := fmt.Sprintf("emit %q: %v", e.Topic, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *EmitError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// NoListener builds an EmitError of kind ErrNoListener.
func NoListener(topic, payload string) error {
	return &EmitError{Kind: ErrNoListener, Topic: topic, Payload: payload}
}

// SerializationFailed builds an EmitError of kind ErrSerializationFailed.
func SerializationFailed(topic, payload string, cause error) error {
	return &EmitError{Kind: ErrSerializationFailed, Topic: topic, Payload: payload, Cause: cause}
}

// errInvalidUTF8 is the cause used when a payload is not valid UTF-8 text.
var errInvalidUTF8 = errors.New("payload is not valid UTF-8")

// CheckPayload verifies the payload can travel as a UTF-8 string, which
// both the in-process bus and D-Bus require.
func CheckPayload(topic, payload string) error {
	if !utf8.ValidString(payload) {
		return SerializationFailed(topic, payload, errInvalidUTF8)
	}
	return nil
}

// Multi fans a notification out to several sinks. Every sink is called;
// the failures are joined. It reports ErrNoListener only when every sink
// did.
type Multi []Sink

// Emit implements Sink.
func (m Multi) Emit(topic, payload string) error {
	if len(m) == 0 {
		return NoListener(topic, payload)
	}

	var errs []error
	noListener := 0
	for _, s := range m {
		if s == nil {
			noListener++
			continue
		}
		if err := s.Emit(topic, payload); err != nil {
			if errors.Is(err, ErrNoListener) {
				noListener++
				continue
			}
			errs = append(errs, err)
		}
	}

	if noListener == len(m) {
		return NoListener(topic, payload)
	}
	return errors.Join(errs...)
}
