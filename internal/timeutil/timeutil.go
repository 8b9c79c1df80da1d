// Package timeutil holds the wall-clock arithmetic behind working-hours
// computation. All inputs are "HH:MM" 24-hour strings; callers are expected
// to validate field ordering before computing durations.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pontual/internal/model"
)

// ErrFormat is returned when a value is not a valid HH:MM 24-hour time.
var ErrFormat = errors.New("not a valid HH:MM time")

var (
	timePattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):[0-5][0-9]$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// IsTime reports whether s matches the HH:MM 24-hour pattern.
func IsTime(s string) bool {
	return timePattern.MatchString(s)
}

// IsDate reports whether s matches the YYYY-MM-DD pattern.
func IsDate(s string) bool {
	return datePattern.MatchString(s)
}

// TimeToMinutes converts an "HH:MM" string to minutes since midnight.
func TimeToMinutes(s string) (int, error) {
	if !timePattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrFormat, s)
	}
	parts := strings.SplitN(s, ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	return hours*60 + minutes, nil
}

// ComputeWorkedMinutes sums the two shift periods and subtracts the break.
// entry2/exit2 may be empty; the second period only counts when both are set.
// Ordering is assumed pre-validated: negative differences propagate unclamped.
func ComputeWorkedMinutes(entry1, exit1, entry2, exit2 string, breakMinutes int) (int, error) {
	e1, err := TimeToMinutes(entry1)
	if err != nil {
		return 0, fmt.Errorf("entry1: %w", err)
	}
	x1, err := TimeToMinutes(exit1)
	if err != nil {
		return 0, fmt.Errorf("exit1: %w", err)
	}

	total := x1 - e1

	if entry2 != "" && exit2 != "" {
		e2, err := TimeToMinutes(entry2)
		if err != nil {
			return 0, fmt.Errorf("entry2: %w", err)
		}
		x2, err := TimeToMinutes(exit2)
		if err != nil {
			return 0, fmt.Errorf("exit2: %w", err)
		}
		total += x2 - e2
	}

	return total - breakMinutes, nil
}

// FormatMinutes splits a total into hours and minutes with an "8h 0m" label.
// Negative totals (break longer than the worked periods) clamp to zero.
func FormatMinutes(total int) model.WorkingHours {
	if total < 0 {
		total = 0
	}
	h := total / 60
	m := total % 60
	return model.WorkingHours{
		TotalMinutes: total,
		Hours:        h,
		Minutes:      m,
		Formatted:    fmt.Sprintf("%dh %dm", h, m),
	}
}
