package country

import "strings"

// exportAliases rewrites common non-canonical spellings to the canonical name.
// Keys are normalized; lookups go through Normalize so "  uSa " and "USA"
// land on the same entry.
//
// The alias table applies ONLY on the single-country export path. The generic
// CRUD path matches raw names against the registry without rewriting. That
// asymmetry is inherited behavior callers depend on; widening the alias table
// to CRUD would silently change which rows existing clients hit.
var exportAliases = map[string]string{
	"us":            "United States",
	"usa":           "United States",
	"united-states": "United States",
	"uk":            "United Kingdom",
}

// CanonicalizeExportName rewrites an export-path country name: trims, strips
// the trailing "*" marking footnoted territories ("Taiwan*" -> "Taiwan"), and
// applies the alias table. Unrecognized names pass through cleaned.
func CanonicalizeExportName(raw string) string {
	cleaned := strings.TrimSuffix(strings.TrimSpace(raw), "*")
	if canonical, ok := exportAliases[Normalize(cleaned)]; ok {
		return canonical
	}
	return cleaned
}
