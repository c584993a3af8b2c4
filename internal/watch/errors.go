package watch

import (
	"errors"
	"fmt"
)

// Watch error kinds.
var (
	// ErrSetupFailed means the root could not be watched. The watcher does
	// not retry; the caller decides whether to degrade or abort.
	ErrSetupFailed = errors.New("watch setup failed")
	// ErrDeliveryFault marks a transient per-event fault. It is logged and
	// the watch continues.
	ErrDeliveryFault = errors.New("watch delivery fault")
	// ErrAlreadyRunning is returned by Start on a running watcher.
	ErrAlreadyRunning = errors.New("watcher already running")

	errNotDirectory = errors.New("not a directory")
	errInvalidPath  = errors.New("path is not valid UTF-8")
)

// SetupError reports why the root could not be watched.
type SetupError struct {
	Root  string
	Cause error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("cannot watch %q: %v", e.Root, e.Cause)
}

// Unwrap lets errors.Is match both ErrSetupFailed and the cause.
func (e *SetupError) Unwrap() []error {
	return []error{ErrSetupFailed, e.Cause}
}

// DeliveryFault is a transient problem with a single event or a backend
// error report.
type DeliveryFault struct {
	Path  string // empty for backend errors
	Cause error
}

func (e *DeliveryFault) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("delivery fault: %v", e.Cause)
	}
	return fmt.Sprintf("delivery fault for %q: %v", e.Path, e.Cause)
}

// Unwrap lets errors.Is match both ErrDeliveryFault and the cause.
func (e *DeliveryFault) Unwrap() []error {
	return []error{ErrDeliveryFault, e.Cause}
}
