// Package match decides whether a filesystem path names a screenshot.
package match

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// Default rule values.
const (
	// DefaultPattern matches the HH.MM.SS timestamp macOS and most capture
	// tools put right before the extension.
	DefaultPattern = `\d{2}\.\d{2}\.\d{2}\.png$`
)

// DefaultExtensions is the extension allow-set of the default rule.
var DefaultExtensions = []string{"png"}

// defaultRule is compiled once at package init. The pattern is a constant,
// so a compile failure is a programming error and panics at startup.
var defaultRule = &Rule{
	extensions: slices.Clone(DefaultExtensions),
	pattern:    regexp.MustCompile(DefaultPattern),
}

// Validation errors.
var (
	ErrNoExtensions = errors.New("at least one extension is required")
	ErrEmptyPattern = errors.New("pattern cannot be empty")
	ErrBadExtension = errors.New("extension must not contain a dot or separator")
)

// Candidate is the per-event view of a created path.
type Candidate struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
	Filename  string `json:"filename"`
}

// NewCandidate splits a path into its filename and extension.
// The extension has no leading dot; it is empty when the filename has none.
func NewCandidate(path string) Candidate {
	name := filepath.Base(path)
	switch name {
	case ".", string(filepath.Separator):
		name = ""
	}
	if strings.HasSuffix(path, string(filepath.Separator)) {
		name = ""
	}

	ext := ""
	if name != "" {
		ext = strings.TrimPrefix(filepath.Ext(name), ".")
	}

	return Candidate{
		Path:      path,
		Extension: ext,
		Filename:  name,
	}
}

// Rule is a compiled match rule: an extension allow-set plus a filename
// pattern. A Rule is immutable and safe for concurrent use.
type Rule struct {
	extensions []string
	pattern    *regexp.Regexp
}

// Default returns the built-in screenshot rule.
func Default() *Rule {
	return defaultRule
}

// NewRule compiles a custom rule. Extensions are compared case-sensitively
// and given without the leading dot.
func NewRule(extensions []string, pattern string) (*Rule, error) {
	if len(extensions) == 0 {
		return nil, ErrNoExtensions
	}
	for _, ext := range extensions {
		if ext == "" || strings.ContainsAny(ext, "./\\") {
			return nil, fmt.Errorf("%w: %q", ErrBadExtension, ext)
		}
	}
	if pattern == "" {
		return nil, ErrEmptyPattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return &Rule{
		extensions: slices.Clone(extensions),
		pattern:    re,
	}, nil
}

// Matches reports whether path names a qualifying screenshot. It never
// touches the filesystem and never fails.
func (r *Rule) Matches(path string) bool {
	return r.MatchCandidate(NewCandidate(path))
}

// MatchCandidate is Matches for an already split path.
func (r *Rule) MatchCandidate(c Candidate) bool {
	if c.Filename == "" || c.Extension == "" {
		return false
	}
	if !slices.Contains(r.extensions, c.Extension) {
		return false
	}
	return r.pattern.MatchString(c.Filename)
}

// Extensions returns a copy of the allow-set.
func (r *Rule) Extensions() []string {
	return slices.Clone(r.extensions)
}

// Pattern returns the filename pattern source.
func (r *Rule) Pattern() string {
	return r.pattern.String()
}

// String describes the rule for logs.
func (r *Rule) String() string {
	return fmt.Sprintf("ext=%s pattern=%s", strings.Join(r.extensions, ","), r.pattern)
}
