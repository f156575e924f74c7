package application

import (
	"sync"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// MappingSnapshot holds the current immutable mapping. Writers build a new
// mapping and swap it in with Replace; readers get a map they may read
// without further locking but must never modify.
type MappingSnapshot struct {
	mu      sync.RWMutex
	mapping model.Mapping
}

// NewMappingSnapshot creates a holder for m. m may be nil, which is treated
// as an empty mapping.
func NewMappingSnapshot(m model.Mapping) *MappingSnapshot {
	if m == nil {
		m = model.Mapping{}
	}
	return &MappingSnapshot{mapping: m}
}

// Get returns the current mapping.
func (s *MappingSnapshot) Get() model.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapping
}

// Replace swaps in m. The caller gives up ownership of m.
func (s *MappingSnapshot) Replace(m model.Mapping) {
	if m == nil {
		m = model.Mapping{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mapping = m
}

// Len returns the number of entries in the current mapping.
func (s *MappingSnapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mapping)
}
