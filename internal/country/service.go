package country

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dErrors "epistats/pkg/domain-errors"
	"epistats/pkg/platform/sentinel"
)

// Service resolves user-supplied country names against the registry. It is
// the single source of truth for name resolution used by the statistics store.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Resolve matches rawName against the stored canonical names, normalizing
// both sides. Aliases are deliberately not applied here; see ResolveExport.
func (s *Service) Resolve(ctx context.Context, rawName string) (*Country, error) {
	name := strings.TrimSpace(rawName)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "country name is required")
	}
	c, err := s.store.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("country %q does not exist", name))
		}
		return nil, fmt.Errorf("resolve country: %w", err)
	}
	return c, nil
}

// ResolveExport applies the export alias table before resolving. Only the
// single-country export path goes through here.
func (s *Service) ResolveExport(ctx context.Context, rawName string) (*Country, error) {
	return s.Resolve(ctx, CanonicalizeExportName(rawName))
}

// List returns all canonical names in ascending order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	names, err := s.store.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
