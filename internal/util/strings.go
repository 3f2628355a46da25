package util

import "strings"

// NormalizeLabels trims whitespace and a leading "@", splits comma lists,
// removes empty strings, and deduplicates labels while preserving order.
func NormalizeLabels(ss []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(ss))
	for _, item := range ss {
		for _, s := range strings.Split(item, ",") {
			s = strings.TrimPrefix(strings.TrimSpace(s), "@")
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
