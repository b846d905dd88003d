package handler

import (
	"strings"

	"epistats/internal/aggregate"

	dErrors "epistats/pkg/domain-errors"
)

// AggregateRequest is the body for aggregate insert and update. Counts are
// pointers so missing fields are rejected rather than defaulted to zero.
type AggregateRequest struct {
	Country         string `json:"country"`
	TotalCases      *int64 `json:"totalCases"`
	TotalDeaths     *int64 `json:"totalDeaths"`
	TotalRecoveries *int64 `json:"totalRecoveries"`
	ActiveCases     *int64 `json:"activeCases"`
}

// Validate implements httputil.Validatable. The country field is optional on
// update (the URL carries it) and checked by the service.
func (r *AggregateRequest) Validate() error {
	r.Country = strings.TrimSpace(r.Country)
	for _, field := range []struct {
		name  string
		value *int64
	}{
		{"totalCases", r.TotalCases},
		{"totalDeaths", r.TotalDeaths},
		{"totalRecoveries", r.TotalRecoveries},
		{"activeCases", r.ActiveCases},
	} {
		if field.value == nil {
			return dErrors.New(dErrors.CodeValidation, field.name+" is required")
		}
		if *field.value < 0 {
			return dErrors.New(dErrors.CodeValidation, field.name+" must not be negative")
		}
	}
	return nil
}

// Aggregate builds the domain row, preferring the URL country name when the
// body omits one.
func (r *AggregateRequest) Aggregate(urlCountry string) aggregate.CountryAggregate {
	name := r.Country
	if name == "" {
		name = urlCountry
	}
	return aggregate.CountryAggregate{
		CountryName:     name,
		TotalCases:      *r.TotalCases,
		TotalDeaths:     *r.TotalDeaths,
		TotalRecoveries: *r.TotalRecoveries,
		ActiveCases:     *r.ActiveCases,
	}
}

// AggregateResponse is the JSON shape of a snapshot row.
type AggregateResponse struct {
	Country         string `json:"country"`
	TotalCases      int64  `json:"totalCases"`
	TotalDeaths     int64  `json:"totalDeaths"`
	TotalRecoveries int64  `json:"totalRecoveries"`
	ActiveCases     int64  `json:"activeCases"`
}

// FromAggregate maps a domain row to its response shape.
func FromAggregate(agg aggregate.CountryAggregate) AggregateResponse {
	return AggregateResponse{
		Country:         agg.CountryName,
		TotalCases:      agg.TotalCases,
		TotalDeaths:     agg.TotalDeaths,
		TotalRecoveries: agg.TotalRecoveries,
		ActiveCases:     agg.ActiveCases,
	}
}

// MessageResponse is the envelope for confirmation-only responses.
type MessageResponse struct {
	Message string `json:"message"`
}
