package domain

import (
	"fmt"
	"regexp"
)

var codePattern = regexp.MustCompile(`^[A-Z]{1,3}\d{1,3}$`)

// IsStationCode reports whether s looks like a monitoring point code.
func IsStationCode(s string) bool {
	return codePattern.MatchString(s)
}

// ValidateRecord lists every invariant a published record violates.
func ValidateRecord(r StationRecord) []string {
	var problems []string
	if !IsStationCode(r.Code) {
		problems = append(problems, fmt.Sprintf("invalid code %q", r.Code))
	}
	for i, e := range r.History {
		if e.Date.IsZero() {
			problems = append(problems, fmt.Sprintf("history[%d] has no date", i))
		}
		if !e.Status.Valid() {
			problems = append(problems, fmt.Sprintf("history[%d] has non-canonical status %q", i, e.Status))
		}
		if i > 0 {
			prev := r.History[i-1].Date
			switch {
			case prev.Equal(e.Date):
				problems = append(problems, fmt.Sprintf("duplicate date %s", e.Date))
			case prev.Before(e.Date):
				problems = append(problems, fmt.Sprintf("history not newest first at %s", e.Date))
			}
		}
	}
	switch {
	case len(r.History) == 0 && r.Latest != nil:
		problems = append(problems, "latest set with empty history")
	case len(r.History) > 0 && r.Latest == nil:
		problems = append(problems, "latest missing")
	case len(r.History) > 0 && (!r.Latest.Date.Equal(r.History[0].Date) || r.Latest.Status != r.History[0].Status):
		problems = append(problems, fmt.Sprintf("latest %s does not match newest history entry %s", r.Latest.Date, r.History[0].Date))
	}
	if (r.Lat == nil) != (r.Lng == nil) {
		problems = append(problems, "only one of lat/lng set")
	}
	return problems
}
