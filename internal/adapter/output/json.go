package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// JSONFormatter formats captures as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes captures as a JSON array, or as one compact object per
// line when streaming.
func (f *JSONFormatter) Format(w io.Writer, captures []model.Capture) error {
	encoder := json.NewEncoder(w)
	if f.opts.Stream {
		for _, c := range captures {
			if err := encoder.Encode(c); err != nil {
				return err
			}
		}
		return nil
	}
	encoder.SetIndent("", "  ")
	if captures == nil {
		captures = []model.Capture{}
	}
	return encoder.Encode(captures)
}
