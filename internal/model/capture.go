// Package model defines the core data structures for shotwatch.
package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"
)

// Capture sources.
const (
	SourceNative = "native"
	SourcePoll   = "poll"
	SourceDBus   = "dbus"
)

// Capture is a screenshot the watcher reported.
type Capture struct {
	ID         string `json:"id" yaml:"id"`
	Path       string `json:"path" yaml:"path"`
	Filename   string `json:"filename" yaml:"filename"`
	Dir        string `json:"dir" yaml:"dir"`
	Source     string `json:"source" yaml:"source"`
	DetectedAt int64  `json:"detected_at" yaml:"detected_at"`
}

// Validation errors.
var (
	ErrEmptyID         = errors.New("id cannot be empty")
	ErrRelativePath    = errors.New("path must be absolute")
	ErrEmptySource     = errors.New("source cannot be empty")
	ErrInvalidDetected = errors.New("detected_at must be greater than 0")
)

// NewCapture creates a Capture for path with a fresh ULID.
func NewCapture(path, source string) (*Capture, error) {
	now := time.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ULID: %w", err)
	}

	return &Capture{
		ID:         id.String(),
		Path:       path,
		Filename:   filepath.Base(path),
		Dir:        filepath.Dir(path),
		Source:     source,
		DetectedAt: now.Unix(),
	}, nil
}

// Validate checks that the capture has all required fields.
func (c *Capture) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if !filepath.IsAbs(c.Path) {
		return ErrRelativePath
	}
	if c.Source == "" {
		return ErrEmptySource
	}
	if c.DetectedAt <= 0 {
		return ErrInvalidDetected
	}
	return nil
}

// DetectedAtTime returns the detection timestamp as a time.Time.
func (c *Capture) DetectedAtTime() time.Time {
	return time.Unix(c.DetectedAt, 0)
}

// RelativeTime returns a human-readable age such as "3 minutes ago".
func (c *Capture) RelativeTime() string {
	return humanize.Time(c.DetectedAtTime())
}

// ULIDTime extracts the creation time embedded in the ID.
// Returns the zero time if the ID is not a valid ULID.
func (c *Capture) ULIDTime() time.Time {
	id, err := ulid.ParseStrict(c.ID)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(id.Time())
}
