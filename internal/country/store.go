package country

import "context"

// Store abstracts canonical country persistence. Implementations return
// sentinel errors; the service translates them.
type Store interface {
	// FindByName matches a name case/whitespace-insensitively.
	FindByName(ctx context.Context, name string) (*Country, error)
	// ListNames returns all canonical names in ascending order.
	ListNames(ctx context.Context) ([]string, error)
	// Add registers a canonical country. Names unique under Normalize.
	Add(ctx context.Context, name string) (*Country, error)
}
