package export

import (
	"context"
	"fmt"
	"time"

	"epistats/internal/country"
	"epistats/internal/export/metrics"

	dErrors "epistats/pkg/domain-errors"
)

// Resolver is the registry surface for the single-country export path: alias
// rewriting followed by canonical resolution.
type Resolver interface {
	ResolveExport(ctx context.Context, rawName string) (*country.Country, error)
}

// Service is the export projector: it restricts rows to whitelisted columns
// and serializes them. Exports either return the full requested projection or
// one coded error; a single bad row never partially fails a batch.
type Service struct {
	source   Source
	resolver Resolver
	cache    *Cache
	metrics  *metrics.Metrics
}

func NewService(source Source, resolver Resolver, cache *Cache, metrics *metrics.Metrics) *Service {
	return &Service{
		source:   source,
		resolver: resolver,
		cache:    cache,
		metrics:  metrics,
	}
}

// ExportAll serializes every exportable row with the full column set.
// The format is validated before anything else; an unsupported format fails
// regardless of data presence.
func (s *Service) ExportAll(ctx context.Context, rawFormat string) (*Payload, error) {
	start := time.Now()
	format, err := parseFormat(rawFormat)
	if err != nil {
		return nil, err
	}

	if body, ok := s.cache.get(ctx, format); ok {
		s.metrics.RecordCacheHit()
		s.metrics.RecordExport(string(format), "all", time.Since(start))
		return payloadFor(format, "export.csv", body), nil
	}

	rows, err := s.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("export all: %w", err)
	}
	if len(rows) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no data available to export")
	}

	payload, err := serialize(format, rows, DefaultColumns, "export.csv")
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, format, payload.Body)
	s.metrics.RecordExport(string(format), "all", time.Since(start))
	return payload, nil
}

// ExportOne serializes one country's rows restricted to the requested
// columns. Columns are validated strictly: any name outside the whitelist
// fails, naming every offender.
func (s *Service) ExportOne(ctx context.Context, rawFormat, rawCountry string, requested []string) (*Payload, error) {
	start := time.Now()
	format, err := parseFormat(rawFormat)
	if err != nil {
		return nil, err
	}

	cols := DefaultColumns
	if len(requested) > 0 {
		cols, err = ParseColumnsStrict(requested)
		if err != nil {
			return nil, err
		}
	}

	c, err := s.resolver.ResolveExport(ctx, rawCountry)
	if err != nil {
		return nil, err
	}

	rows, err := s.source.RowsByNames(ctx, []string{c.Name})
	if err != nil {
		return nil, fmt.Errorf("export one: %w", err)
	}
	if len(rows) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("no data found for country %q", c.Name))
	}

	payload, err := serialize(format, rows, cols, c.Name+"_export.csv")
	if err != nil {
		return nil, err
	}
	s.metrics.RecordExport(string(format), "one", time.Since(start))
	return payload, nil
}

// ExportMany serializes rows matching any of the given country names in one
// pass. Unlike ExportOne, out-of-whitelist columns are dropped silently -
// inherited leniency, kept so existing callers don't start failing - but a
// request whose columns ALL drop is rejected rather than silently widened to
// the full set.
func (s *Service) ExportMany(ctx context.Context, rawFormat string, countries []string, requested []string) (*Payload, error) {
	start := time.Now()
	format, err := parseFormat(rawFormat)
	if err != nil {
		return nil, err
	}
	if len(countries) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no countries provided for export")
	}

	cols := DefaultColumns
	if len(requested) > 0 {
		cols = ParseColumnsLenient(requested)
		if len(cols) == 0 {
			return nil, dErrors.New(dErrors.CodeBadRequest, "no valid columns requested")
		}
	}

	rows, err := s.source.RowsByNames(ctx, countries)
	if err != nil {
		return nil, fmt.Errorf("export many: %w", err)
	}
	if len(rows) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "no data found for the selected countries")
	}

	payload, err := serialize(format, rows, cols, "export_multiple.csv")
	if err != nil {
		return nil, err
	}
	s.metrics.RecordExport(string(format), "many", time.Since(start))
	return payload, nil
}

func parseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "unsupported format: use 'json' or 'csv'")
	}
}

func payloadFor(format Format, csvFilename string, body []byte) *Payload {
	if format == FormatCSV {
		return &Payload{ContentType: "text/csv", Filename: csvFilename, Body: body}
	}
	return &Payload{ContentType: "application/json", Body: body}
}
