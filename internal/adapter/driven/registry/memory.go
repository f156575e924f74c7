// Package registry holds the host's list of browsing containers. The list is
// seeded from a TOML file at startup and replaced whenever the host pushes a
// fresh snapshot.
package registry

import (
	"context"
	"slices"
	"sync"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
	"github.com/ericfisherdev/containerproxy/internal/domain/port/driven"
)

var _ driven.ContainerRegistry = (*Memory)(nil)

// Memory is an in-memory ContainerRegistry safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	containers []model.Container
}

// NewMemory creates a registry holding a copy of containers.
func NewMemory(containers []model.Container) *Memory {
	return &Memory{containers: slices.Clone(containers)}
}

// List returns a copy of the current container snapshot.
func (r *Memory) List(_ context.Context) ([]model.Container, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.containers), nil
}

// Replace swaps the whole snapshot. Entries with an empty ID are dropped.
func (r *Memory) Replace(containers []model.Container) {
	next := make([]model.Container, 0, len(containers))
	for _, c := range containers {
		if c.ID != "" {
			next = append(next, c)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.containers = next
}
