package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// PlainFormatter formats captures as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes captures as plain text.
func (f *PlainFormatter) Format(w io.Writer, captures []model.Capture) error {
	for i, c := range captures {
		if err := f.formatCapture(w, i+1, &c); err != nil {
			return err
		}
	}
	return nil
}

// formatCapture formats a single capture.
func (f *PlainFormatter) formatCapture(w io.Writer, index int, c *model.Capture) error {
	// Use custom template if available
	if f.template != nil {
		data := templateData{
			Index:        index,
			Capture:      c,
			RelativeTime: relativeTime(c.DetectedAt),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", index))
	}

	sb.WriteString(c.Filename)

	if f.opts.ShowTime {
		sb.WriteString(fmt.Sprintf(" (%s)", relativeTime(c.DetectedAt)))
	}

	sb.WriteString("\n")

	if f.opts.ShowDir && c.Dir != "" {
		sb.WriteString("    " + c.Dir + "\n")
	}

	_, err := w.Write([]byte(sb.String()))
	return err
}

// FormatField outputs a specific field from a capture.
func FormatField(c *model.Capture, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return c.ID
	case "filename", "name":
		return c.Filename
	case "dir", "directory":
		return c.Dir
	case "source":
		return c.Source
	case "time", "detected_at":
		return relativeTime(c.DetectedAt)
	case "path":
		fallthrough
	default:
		return c.Path
	}
}
