package driven

import (
	"context"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// ContainerRegistry defines the driven port for the host's list of browsing
// containers. The registry is owned by the host; this system only reads it
// to label exported documents.
type ContainerRegistry interface {
	List(ctx context.Context) ([]model.Container, error)
}
