package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// PathsFormatter outputs just the capture paths, one per line.
// Useful for piping to other commands (e.g., xargs wl-copy).
type PathsFormatter struct{}

// NewPathsFormatter creates a new paths formatter.
func NewPathsFormatter() *PathsFormatter {
	return &PathsFormatter{}
}

// Format writes capture paths to the writer, one per line.
func (f *PathsFormatter) Format(w io.Writer, captures []model.Capture) error {
	for _, c := range captures {
		if _, err := fmt.Fprintln(w, c.Path); err != nil {
			return err
		}
	}
	return nil
}
