package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// SortField represents a field to sort by.
type SortField string

const (
	SortByTime     SortField = "time"
	SortByFilename SortField = "filename"
	SortByDir      SortField = "dir"
)

// SortOrder represents ascending or descending order.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortOptions specifies sorting criteria.
type SortOptions struct {
	Field SortField // Field to sort by
	Order SortOrder // Sort order (asc/desc)
}

// DefaultSortOptions returns default sort options (newest first).
func DefaultSortOptions() SortOptions {
	return SortOptions{
		Field: SortByTime,
		Order: SortDesc,
	}
}

// ParseSortOptions validates a field and order.
func ParseSortOptions(field, order string) (SortOptions, error) {
	opts := SortOptions{Field: SortField(field), Order: SortOrder(order)}
	switch opts.Field {
	case SortByTime, SortByFilename, SortByDir:
	default:
		return opts, fmt.Errorf("invalid sort field %q (use time, filename or dir)", field)
	}
	switch opts.Order {
	case SortAsc, SortDesc:
	default:
		return opts, fmt.Errorf("invalid sort order %q (use asc or desc)", order)
	}
	return opts, nil
}

// Sort sorts captures in place based on the provided options. Ties keep
// their original order.
func Sort(captures []model.Capture, opts SortOptions) {
	if len(captures) == 0 {
		return
	}

	sort.SliceStable(captures, func(i, j int) bool {
		a, b := captures[i], captures[j]
		if opts.Order == SortDesc {
			a, b = b, a
		}

		switch opts.Field {
		case SortByFilename:
			return strings.ToLower(a.Filename) < strings.ToLower(b.Filename)
		case SortByDir:
			return strings.ToLower(a.Dir) < strings.ToLower(b.Dir)
		default:
			return a.DetectedAt < b.DetectedAt
		}
	})
}
