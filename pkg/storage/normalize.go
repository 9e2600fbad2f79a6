package storage

import "strings"

// NormalizeKey canonicalizes a ticket or project key as typed by a user:
// surrounding space is dropped and letters are upper-cased.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeKeys normalizes a comma separated key list, dropping empty
// entries and duplicates while keeping first-seen order.
func NormalizeKeys(list string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(list, ",") {
		k := NormalizeKey(part)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
