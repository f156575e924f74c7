package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

var errStorage = errors.New("disk full")

// mockMappingStore is an in-memory driven.MappingStore with failure switches.
type mockMappingStore struct {
	mu      sync.Mutex
	stored  model.Mapping
	loadErr error
	saveErr error
	loads   int
	saves   int
}

func (m *mockMappingStore) Load(_ context.Context) (model.Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.stored == nil {
		return model.Mapping{}, nil
	}
	return m.stored.Clone(), nil
}

func (m *mockMappingStore) Save(_ context.Context, mapping model.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stored = mapping.Clone()
	return nil
}

func (m *mockMappingStore) snapshot() model.Mapping {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stored.Clone()
}

func (m *mockMappingStore) setLoadErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// recordingNotifier collects published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (n *recordingNotifier) Publish(event model.ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) all() []model.ChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.ChangeEvent(nil), n.events...)
}

// staticSource serves a fixed mapping to the resolver and auth responder.
type staticSource struct {
	mapping model.Mapping
}

func (s staticSource) Snapshot() model.Mapping { return s.mapping }

// panicSource simulates an internal fault on the dispatch path.
type panicSource struct{}

func (panicSource) Snapshot() model.Mapping { panic("boom") }

// mockRegistry is a fixed driven.ContainerRegistry.
type mockRegistry struct {
	containers []model.Container
	err        error
}

func (r *mockRegistry) List(_ context.Context) ([]model.Container, error) {
	return r.containers, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(t testing.TB, store *mockMappingStore) (*ProxyService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	svc := NewProxyService(store, notifier, discardLogger())
	return svc, notifier
}

func mustSetProxy(t *testing.T, svc *ProxyService, containerID string, cfg model.ProxyConfig) {
	t.Helper()
	_, err := svc.SetProxy(context.Background(), containerID, cfg)
	require.NoError(t, err)
}
