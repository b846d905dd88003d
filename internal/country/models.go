package country

import "strings"

// Country is a canonical country identity. Canonical names are stored once;
// every lookup normalizes both sides before matching.
type Country struct {
	ID   int64
	Name string
}

// Normalize is the single normalization applied to country names on both the
// stored and the user-supplied side: trim then case-fold.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
