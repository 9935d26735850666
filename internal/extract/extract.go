// Package extract scans text and WHOIS field values for contact candidates.
// Pure functions; no state, no I/O.
package extract

import (
	"regexp"
	"strings"
)

// Both patterns trade precision for recall; downstream dedup and human review
// absorb false positives.
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-()]{6,}`)
)

// Emails returns the distinct, whitespace-trimmed email candidates in text.
func Emails(text string) []string {
	return dedupe(emailPattern.FindAllString(text, -1))
}

// Phones returns the distinct, whitespace-trimmed phone candidates in text.
func Phones(text string) []string {
	return dedupe(phonePattern.FindAllString(text, -1))
}

// Normalize trims each value and drops empties and duplicates. WHOIS fields
// arrive as scalar-or-list already flattened to a slice; this produces the
// final set.
func Normalize(values []string) []string {
	return dedupe(values)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
