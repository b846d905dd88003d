package export

import (
	"strconv"
	"strings"

	dErrors "epistats/pkg/domain-errors"
)

// Column names a whitelisted exportable field. The whitelist is the security
// boundary of the projection path: requested names are mapped to enumerated
// accessors and never reach query text, so there is no column to inject.
type Column string

const (
	ColumnCountryName     Column = "nompays"
	ColumnTotalCases      Column = "total_cases"
	ColumnTotalDeaths     Column = "total_deaths"
	ColumnTotalRecoveries Column = "total_recoveries"
	ColumnActiveCases     Column = "total_active_cases"
)

// DefaultColumns is the full whitelist in export order, also the default
// projection when a caller requests no columns.
var DefaultColumns = []Column{
	ColumnCountryName,
	ColumnTotalCases,
	ColumnTotalDeaths,
	ColumnTotalRecoveries,
	ColumnActiveCases,
}

var columnSet = func() map[Column]struct{} {
	set := make(map[Column]struct{}, len(DefaultColumns))
	for _, col := range DefaultColumns {
		set[col] = struct{}{}
	}
	return set
}()

// ParseColumnsStrict validates requested column names against the whitelist,
// naming every offender. The single-country export path uses this.
func ParseColumnsStrict(requested []string) ([]Column, error) {
	cols := make([]Column, 0, len(requested))
	var invalid []string
	for _, raw := range requested {
		col := Column(strings.TrimSpace(raw))
		if _, ok := columnSet[col]; ok {
			cols = append(cols, col)
		} else {
			invalid = append(invalid, string(col))
		}
	}
	if len(invalid) > 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid columns: "+strings.Join(invalid, ", "))
	}
	return cols, nil
}

// ParseColumnsLenient drops out-of-whitelist names silently. The
// multi-country path keeps this historical leniency; see the strict variant
// for the single-country behavior.
func ParseColumnsLenient(requested []string) []Column {
	cols := make([]Column, 0, len(requested))
	for _, raw := range requested {
		col := Column(strings.TrimSpace(raw))
		if _, ok := columnSet[col]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

// Value projects the column out of a row.
func (c Column) Value(row Row) any {
	switch c {
	case ColumnCountryName:
		return row.CountryName
	case ColumnTotalCases:
		return row.TotalCases
	case ColumnTotalDeaths:
		return row.TotalDeaths
	case ColumnTotalRecoveries:
		return row.TotalRecoveries
	case ColumnActiveCases:
		return row.ActiveCases
	default:
		return nil
	}
}

// Cell projects the column as CSV cell text.
func (c Column) Cell(row Row) string {
	if c == ColumnCountryName {
		return row.CountryName
	}
	v, _ := c.Value(row).(int64)
	return strconv.FormatInt(v, 10)
}
