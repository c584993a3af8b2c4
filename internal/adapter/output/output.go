// Package output provides output formatters for captures.
package output

import (
	"fmt"
	"io"
	"slices"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// Formatter formats captures for output.
type Formatter interface {
	// Format writes formatted captures to the writer.
	Format(w io.Writer, captures []model.Capture) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatDmenu FormatType = "dmenu"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatPaths FormatType = "paths"
)

// ValidFormats returns all valid format types.
func ValidFormats() []FormatType {
	return []FormatType{FormatPlain, FormatDmenu, FormatJSON, FormatYAML, FormatPaths}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (FormatType, error) {
	f := FormatType(s)
	if !slices.Contains(ValidFormats(), f) {
		return "", fmt.Errorf("invalid format %q, must be one of: %v", s, ValidFormats())
	}
	return f, nil
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatPaths:
		return NewPathsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template  string // Custom template for dmenu/plain format
	ShowIndex bool   // Show 1-based index prefix
	ShowTime  bool   // Show relative time
	ShowDir   bool   // Show the containing directory
	Separator string // Field separator for dmenu format
	Stream    bool   // One record per Format call, for live output
}

// DefaultFormatterOptions returns sensible defaults for listing output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex: true,
		ShowTime:  true,
		Separator: " | ",
	}
}
