package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// YAMLFormatter formats captures as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes captures as a YAML sequence, or as one document per
// capture when streaming.
func (f *YAMLFormatter) Format(w io.Writer, captures []model.Capture) error {
	if !f.opts.Stream {
		if captures == nil {
			captures = []model.Capture{}
		}
		return FormatYAMLValue(w, captures)
	}

	for _, c := range captures {
		if _, err := io.WriteString(w, "---\n"); err != nil {
			return err
		}
		if err := FormatYAMLValue(w, c); err != nil {
			return err
		}
	}
	return nil
}

// FormatYAMLValue writes any value as YAML.
func FormatYAMLValue(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
