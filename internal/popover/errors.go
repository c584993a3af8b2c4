package popover

import (
	"errors"
	"fmt"
)

// Window operation error kinds.
var (
	ErrCreationFailed = errors.New("window creation failed")
	ErrPositionFailed = errors.New("window positioning failed")
	ErrShowFailed     = errors.New("window show failed")
	ErrHideFailed     = errors.New("window hide failed")
)

// WindowError reports a failed host operation on the popover window.
type WindowError struct {
	Op    string // "create", "position", "show", "hide"
	Kind  error  // one of the Err* kinds above
	Cause error
}

func (e *WindowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("popover %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("popover %s: %v", e.Op, e.Kind)
}

// Unwrap lets errors.Is match both the kind and the cause.
func (e *WindowError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
