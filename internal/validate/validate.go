// Package validate checks the shape of a time record before it is persisted.
// All rules run independently so the caller gets the full list of problems
// in one pass; nothing is auto-corrected.
package validate

import (
	"fmt"

	"pontual/internal/model"
	"pontual/internal/timeutil"
)

// Result is the outcome of validating a record.
type Result struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Record validates a time record and collects every violation.
// Time ordering rules use lexicographic comparison, which is correct for
// zero-padded HH:MM strings; they only fire when both operands parse.
func Record(r model.TimeRecord) Result {
	var errs []string

	if r.Date == "" {
		errs = append(errs, "date is required")
	} else if !timeutil.IsDate(r.Date) {
		errs = append(errs, fmt.Sprintf("invalid date format %q; expected YYYY-MM-DD", r.Date))
	}

	if r.Entry1 == "" {
		errs = append(errs, "entry1 is required")
	}

	fields := []struct {
		name  string
		value string
	}{
		{"entry1", r.Entry1},
		{"exit1", r.Exit1},
		{"entry2", r.Entry2},
		{"exit2", r.Exit2},
	}
	ok := map[string]bool{}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if timeutil.IsTime(f.value) {
			ok[f.name] = true
		} else {
			errs = append(errs, fmt.Sprintf("invalid time format for %s: %q; expected HH:MM", f.name, f.value))
		}
	}

	pad := func(s string) string {
		if len(s) == 4 { // "8:00" -> "08:00"
			return "0" + s
		}
		return s
	}

	if ok["entry1"] && ok["exit1"] && pad(r.Exit1) <= pad(r.Entry1) {
		errs = append(errs, "exit1 must be after entry1")
	}
	if ok["entry2"] && ok["exit2"] && pad(r.Exit2) <= pad(r.Entry2) {
		errs = append(errs, "exit2 must be after entry2")
	}
	if ok["entry2"] && ok["exit1"] && pad(r.Entry2) <= pad(r.Exit1) {
		errs = append(errs, "entry2 must be after exit1")
	}

	if r.BreakMinutes < 0 {
		errs = append(errs, "break minutes must not be negative")
	}

	if r.Status != "" && !r.Status.Valid() {
		errs = append(errs, fmt.Sprintf("invalid status %q", r.Status))
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}
