// Package schedule holds the pure scheduling core: time-of-day arithmetic,
// the interval overlap predicate, selectable slot generation and the
// per-vehicle availability resolver. Nothing in here touches the store or the
// network, so every function is safe to recompute on any input change.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// MinuteOfDay parses a zero-padded "HH:MM" value into its linear
// minute-of-day offset. Times compare as integers, never as strings, so
// ordering is unambiguous regardless of padding at call sites.
func MinuteOfDay(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour*60 + minute, nil
}

// FormatMinuteOfDay renders a minute-of-day offset back to "HH:MM".
func FormatMinuteOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) on the same date intersect. Back-to-back windows
// (aEnd == bStart) do not overlap. Callers must only compare intervals on the
// same calendar date; cross-date windows never conflict.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	as, err1 := MinuteOfDay(aStart)
	ae, err2 := MinuteOfDay(aEnd)
	bs, err3 := MinuteOfDay(bStart)
	be, err4 := MinuteOfDay(bEnd)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return false
	}
	return as < be && bs < ae
}
