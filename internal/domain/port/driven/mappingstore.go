package driven

import (
	"context"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// MappingStore defines the driven port for durable persistence of the
// container-to-proxy mapping. The mapping is always read and written whole;
// there are no partial or merge semantics.
type MappingStore interface {
	// Load reconstructs the mapping. Returns an empty, non-nil mapping when
	// nothing has been persisted yet.
	Load(ctx context.Context) (model.Mapping, error)

	// Save overwrites the persisted mapping with m.
	Save(ctx context.Context, m model.Mapping) error
}
