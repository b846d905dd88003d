package handler

import (
	"strings"
	"time"

	"epistats/internal/stats"

	dErrors "epistats/pkg/domain-errors"
)

// countsPayload carries the date and the four count fields shared by insert
// and upsert bodies. Counts are pointers so "missing" and "zero" stay
// distinguishable; all four are required.
type countsPayload struct {
	Date            string `json:"date"`
	TotalCases      *int64 `json:"totalCases"`
	TotalDeaths     *int64 `json:"totalDeaths"`
	TotalRecoveries *int64 `json:"totalRecoveries"`
	ActiveCases     *int64 `json:"activeCases"`

	parsedDate time.Time
}

func (p *countsPayload) validate() error {
	p.Date = strings.TrimSpace(p.Date)
	if p.Date == "" {
		return dErrors.New(dErrors.CodeValidation, "date is required")
	}
	parsed, err := time.Parse(stats.DateFormat, p.Date)
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "date must be formatted as YYYY-MM-DD")
	}
	p.parsedDate = parsed

	for _, field := range []struct {
		name  string
		value *int64
	}{
		{"totalCases", p.TotalCases},
		{"totalDeaths", p.TotalDeaths},
		{"totalRecoveries", p.TotalRecoveries},
		{"activeCases", p.ActiveCases},
	} {
		if field.value == nil {
			return dErrors.New(dErrors.CodeValidation, field.name+" is required")
		}
	}
	return nil
}

// ParsedDate returns the calendar date parsed during validation.
func (p *countsPayload) ParsedDate() time.Time {
	return p.parsedDate
}

// Counts returns the validated count fields.
func (p *countsPayload) Counts() stats.Counts {
	return stats.Counts{
		TotalCases:      *p.TotalCases,
		TotalDeaths:     *p.TotalDeaths,
		TotalRecoveries: *p.TotalRecoveries,
		ActiveCases:     *p.ActiveCases,
	}
}

// InsertRequest is the body for POST /data.
type InsertRequest struct {
	Country string `json:"country"`
	countsPayload
}

// Validate implements httputil.Validatable.
func (r *InsertRequest) Validate() error {
	r.Country = strings.TrimSpace(r.Country)
	if r.Country == "" {
		return dErrors.New(dErrors.CodeValidation, "country is required")
	}
	return r.validate()
}

// UpsertRequest is the body for PUT /data/day/{country}; the country comes
// from the URL.
type UpsertRequest struct {
	countsPayload
}

// Validate implements httputil.Validatable.
func (r *UpsertRequest) Validate() error {
	return r.validate()
}
