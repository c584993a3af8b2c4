// Package core provides filtering, sorting, and lookup logic for captures.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// FilterOp represents a comparison operator.
type FilterOp string

const (
	FilterOpEqual     FilterOp = "="  // Exact match
	FilterOpNotEqual  FilterOp = "!=" // Not equal
	FilterOpContains  FilterOp = "~"  // Contains substring
	FilterOpRegex     FilterOp = "~=" // Regex match
	FilterOpGreater   FilterOp = ">"  // Newer than
	FilterOpLess      FilterOp = "<"  // Older than
	FilterOpGreaterEq FilterOp = ">=" // Newer than or at
	FilterOpLessEq    FilterOp = "<=" // Older than or at
)

// FilterCondition represents a single filter condition.
type FilterCondition struct {
	Field    string   // Field name: filename, dir, path, source, time
	Operator FilterOp // Comparison operator
	Value    string   // Value to compare against

	regex  *regexp.Regexp // Compiled regex for ~= operator
	cutoff time.Time      // Parsed time for comparison
}

// FilterExpr represents a compound filter expression.
// Multiple conditions are ANDed together.
type FilterExpr struct {
	Conditions []FilterCondition
}

// FilterOptions specifies criteria for filtering captures.
type FilterOptions struct {
	Since time.Duration // Captures newer than now-since (0=all)
	Limit int           // Maximum results (0=unlimited)
}

// Filter filters captures based on the provided options.
func Filter(captures []model.Capture, opts FilterOptions) []model.Capture {
	cutoff := time.Now().Add(-opts.Since)
	result := make([]model.Capture, 0, len(captures))

	for _, c := range captures {
		if opts.Since > 0 && time.Unix(c.DetectedAt, 0).Before(cutoff) {
			continue
		}
		result = append(result, c)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result
}

// ParseDuration parses a duration string with extended formats.
// Supports: 48h, 7d, 1w, 0 (all time)
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	// Special case: 0 means no filter (all time)
	if s == "0" || s == "" {
		return 0, nil
	}

	// Handle day suffix (7d -> 168h)
	if daysStr, found := strings.CutSuffix(s, "d"); found {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	// Handle week suffix (1w -> 168h)
	if weeksStr, found := strings.CutSuffix(s, "w"); found {
		weeks, err := strconv.Atoi(weeksStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		return time.Duration(weeks) * 7 * 24 * time.Hour, nil
	}

	return time.ParseDuration(s)
}

// ParseFilter parses a filter expression string into a FilterExpr.
// Format: "field=value,field2~value2,field3>value3"
// Multiple conditions are comma-separated and ANDed together.
//
// Supported fields: filename, dir, path, source, time
// Supported operators: = (equal), != (not equal), ~ (contains), ~= (regex), >, <, >=, <=
//
// Examples:
//   - "filename~screenshot" - filename contains "screenshot"
//   - "dir=/home/u/Desktop" - directly in the Desktop
//   - "time>1h" - captured within the last hour
func ParseFilter(expr string) (*FilterExpr, error) {
	filter := &FilterExpr{}
	if expr == "" {
		return filter, nil
	}

	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		cond, err := parseCondition(part)
		if err != nil {
			return nil, err
		}
		filter.Conditions = append(filter.Conditions, cond)
	}

	return filter, nil
}

// parseCondition parses a single condition like "filename~shot"
func parseCondition(s string) (FilterCondition, error) {
	// Try operators in order of specificity (longest first)
	operators := []FilterOp{
		FilterOpNotEqual,  // != (must be before =)
		FilterOpGreaterEq, // >= (must be before >)
		FilterOpLessEq,    // <= (must be before <)
		FilterOpRegex,     // ~= (must be before ~)
		FilterOpEqual,
		FilterOpContains,
		FilterOpGreater,
		FilterOpLess,
	}

	for _, op := range operators {
		idx := strings.Index(s, string(op))
		if idx > 0 {
			cond := FilterCondition{
				Field:    strings.ToLower(strings.TrimSpace(s[:idx])),
				Operator: op,
				Value:    strings.TrimSpace(s[idx+len(op):]),
			}
			if err := cond.init(); err != nil {
				return FilterCondition{}, err
			}
			return cond, nil
		}
	}

	return FilterCondition{}, fmt.Errorf("invalid filter condition: %s (missing operator)", s)
}

// init pre-parses and validates the condition value.
func (c *FilterCondition) init() error {
	switch c.Field {
	case "filename", "name":
		c.Field = "filename"
	case "dir", "directory":
		c.Field = "dir"
	case "path":
	case "source":
	case "time", "detected_at", "ts":
		c.Field = "time"
		switch c.Operator {
		case FilterOpGreater, FilterOpLess, FilterOpGreaterEq, FilterOpLessEq:
		default:
			return fmt.Errorf("time only supports >, <, >= and <=")
		}
		dur, err := ParseDuration(c.Value)
		if err != nil {
			return fmt.Errorf("invalid time value: %w", err)
		}
		c.cutoff = time.Now().Add(-dur)
	default:
		return fmt.Errorf("unknown filter field: %s", c.Field)
	}

	if c.Operator == FilterOpRegex {
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return fmt.Errorf("invalid regex: %w", err)
		}
		c.regex = re
	}

	return nil
}

// Match tests if a capture matches the filter expression.
// All conditions must match (AND logic).
func (f *FilterExpr) Match(c model.Capture) bool {
	for _, cond := range f.Conditions {
		if !cond.Match(c) {
			return false
		}
	}
	return true
}

// Match tests if a capture matches this single condition.
func (c *FilterCondition) Match(capture model.Capture) bool {
	switch c.Field {
	case "filename":
		return c.matchString(capture.Filename)
	case "dir":
		return c.matchString(capture.Dir)
	case "path":
		return c.matchString(capture.Path)
	case "source":
		return c.matchString(capture.Source)
	case "time":
		return c.matchTime(time.Unix(capture.DetectedAt, 0))
	default:
		return false
	}
}

// matchString matches a string field.
func (c *FilterCondition) matchString(fieldValue string) bool {
	switch c.Operator {
	case FilterOpEqual:
		return fieldValue == c.Value
	case FilterOpNotEqual:
		return fieldValue != c.Value
	case FilterOpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(c.Value))
	case FilterOpRegex:
		return c.regex != nil && c.regex.MatchString(fieldValue)
	default:
		return false
	}
}

// matchTime matches the detection time.
func (c *FilterCondition) matchTime(fieldValue time.Time) bool {
	switch c.Operator {
	case FilterOpGreater:
		return fieldValue.After(c.cutoff)
	case FilterOpLess:
		return fieldValue.Before(c.cutoff)
	case FilterOpGreaterEq:
		return !fieldValue.Before(c.cutoff)
	case FilterOpLessEq:
		return !fieldValue.After(c.cutoff)
	default:
		return false
	}
}

// FilterWithExpr filters captures using a filter expression.
func FilterWithExpr(captures []model.Capture, expr *FilterExpr) []model.Capture {
	if expr == nil || len(expr.Conditions) == 0 {
		return captures
	}

	result := make([]model.Capture, 0, len(captures))
	for _, c := range captures {
		if expr.Match(c) {
			result = append(result, c)
		}
	}
	return result
}
