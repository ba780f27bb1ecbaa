package domain

import (
	"encoding/json"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status is the canonical water-quality classification of a reading.
type Status string

const (
	StatusProper   Status = "PROPER"
	StatusImproper Status = "IMPROPER"
	StatusUnknown  Status = "UNKNOWN"
)

const (
	keywordImproper = "IMPROPRIO"
	keywordProper   = "PROPRIO"
)

var (
	improperVariants = withDeletions(keywordImproper)
	properVariants   = withDeletions(keywordProper)
)

const quoteChars = "\"'`´“”‘’"

// NormalizeStatus maps raw status text from a report to a canonical Status.
// Matching is case, accent and quote insensitive and tolerates one dropped
// letter. Unrecognized text yields StatusUnknown.
func NormalizeStatus(raw string) Status {
	s := strings.ToUpper(raw)
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteChars, r) {
			return -1
		}
		return r
	}, s)
	s = stripDiacritics(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, s)

	if s == "" {
		return StatusUnknown
	}
	if containsAny(s, improperVariants) {
		return StatusImproper
	}
	if containsAny(s, properVariants) {
		return StatusProper
	}
	return StatusUnknown
}

// Valid reports whether s is one of the canonical values.
func (s Status) Valid() bool {
	switch s {
	case StatusProper, StatusImproper, StatusUnknown:
		return true
	}
	return false
}

// UnmarshalJSON normalizes stored values, so legacy feeds carrying
// "PRÓPRIO" or "Impróprio" decode to canonical statuses.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeStatus(raw)
	return nil
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// withDeletions returns word plus every variant with exactly one letter removed.
func withDeletions(word string) []string {
	seen := map[string]bool{word: true}
	out := []string{word}
	for i := range word {
		v := word[:i] + word[i+1:]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
