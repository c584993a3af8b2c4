package core

import (
	"strings"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// LookupByIndex finds a capture by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(captures []model.Capture, index int) *model.Capture {
	idx := index - 1
	if idx < 0 || idx >= len(captures) {
		return nil
	}
	return &captures[idx]
}

// LookupByPath finds a capture by its path. Returns nil if not found.
func LookupByPath(captures []model.Capture, path string) *model.Capture {
	for i := range captures {
		if captures[i].Path == path {
			return &captures[i]
		}
	}
	return nil
}

// Search finds captures whose path contains term, case-insensitively.
func Search(captures []model.Capture, term string) []model.Capture {
	if term == "" {
		return captures
	}

	term = strings.ToLower(term)
	var result []model.Capture
	for _, c := range captures {
		if strings.Contains(strings.ToLower(c.Path), term) {
			result = append(result, c)
		}
	}
	return result
}
