package model

import (
	"sync"
)

// DefaultHistorySize is the number of captures kept when no size is given.
const DefaultHistorySize = 10

// History keeps the most recent captures of the current session, newest
// first. It is safe for concurrent use.
type History struct {
	mu    sync.RWMutex
	items []Capture
	limit int
	total int
}

// NewHistory creates a History bounded to limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit}
}

// Add records a capture, evicting the oldest entry when full.
func (h *History) Add(c Capture) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append([]Capture{c}, h.items...)
	if len(h.items) > h.limit {
		h.items = h.items[:h.limit]
	}
	h.total++
}

// Recent returns a copy of the kept captures, newest first.
func (h *History) Recent() []Capture {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Capture, len(h.items))
	copy(out, h.items)
	return out
}

// Len returns the number of kept captures.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// Total returns how many captures were added since creation.
func (h *History) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// SetLimit changes the bound, trimming the oldest entries if needed.
func (h *History) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultHistorySize
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.limit = limit
	if len(h.items) > limit {
		h.items = h.items[:limit]
	}
}
