package analytics

import (
	"strings"
	"time"
)

// Range is a rolling window ending now.
type Range string

const (
	Range24h Range = "24h"
	Range7d  Range = "7d"
	Range30d Range = "30d"
	Range90d Range = "90d"

	DefaultRange = Range7d
)

var Ranges = []Range{Range24h, Range7d, Range30d, Range90d}

// ParseRange accepts one of Ranges; anything else is DefaultRange.
func ParseRange(s string) Range {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case Range24h, Range7d, Range30d, Range90d:
		return r
	}
	return DefaultRange
}

func (r Range) Days() int {
	switch r {
	case Range24h:
		return 1
	case Range30d:
		return 30
	case Range90d:
		return 90
	default:
		return 7
	}
}

// Start is the exclusive lower bound of the window.
func (r Range) Start(now time.Time) time.Time {
	return now.UTC().AddDate(0, 0, -r.Days())
}
