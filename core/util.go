package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// SplitList splits a comma-separated list, cleaning each item and dropping empty ones.
func SplitList(s string, lower ...bool) []string {
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanString(p, lower...); p != "" {
			items = append(items, p)
		}
	}
	return items
}
