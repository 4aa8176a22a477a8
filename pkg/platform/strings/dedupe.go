// Package strings holds small helpers for operator-supplied string lists.
package strings

import "strings"

// DedupeAndTrim trims whitespace, drops empty entries, and removes duplicates
// while preserving first-seen order. Comma-separated lists from the
// environment (broker addresses and the like) pass through here.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
