package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
	"github.com/ericfisherdev/containerproxy/internal/domain/port/driven"
)

// ProxyService owns the container→proxy mapping. It is the only writer:
// every mutation runs load → mutate → persist → publish under a single lock,
// so two concurrent updates can never overwrite each other. Reads go through
// an immutable snapshot and never wait for a persistence write.
type ProxyService struct {
	store    driven.MappingStore
	notifier driven.ChangeNotifier
	snapshot *MappingSnapshot
	logger   *slog.Logger
	now      func() time.Time

	writeMu sync.Mutex
	loaded  bool // guarded by writeMu
}

// NewProxyService creates a ProxyService. notifier may be nil. Call Init
// before serving requests.
func NewProxyService(store driven.MappingStore, notifier driven.ChangeNotifier, logger *slog.Logger) *ProxyService {
	return &ProxyService{
		store:    store,
		notifier: notifier,
		snapshot: NewMappingSnapshot(nil),
		logger:   logger,
		now:      time.Now,
	}
}

// Init loads the persisted mapping. On failure the service keeps serving an
// empty mapping (every request goes direct) and retries the load before the
// next mutation, so a transient storage error never wipes stored entries.
func (s *ProxyService) Init(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		s.logger.Error("failed to load proxy configurations", "error", err)
		return err
	}
	s.logger.Info("proxy configurations loaded", "containers", s.snapshot.Len())
	return nil
}

func (s *ProxyService) loadLocked(ctx context.Context) error {
	m, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	s.snapshot.Replace(m)
	s.loaded = true
	return nil
}

// SetProxy validates cfg, stores it as containerID's proxy (replacing any
// previous entry), persists the whole mapping and returns the stored form.
// containerID is used exactly as given. Validation failures wrap
// model.ErrValidation and leave state untouched; storage failures wrap
// model.ErrPersistence and leave the in-memory mapping unchanged.
func (s *ProxyService) SetProxy(ctx context.Context, containerID string, cfg model.ProxyConfig) (model.ProxyConfig, error) {
	if err := validateContainerID(containerID); err != nil {
		return model.ProxyConfig{}, err
	}

	normalized, err := cfg.Normalize()
	if err != nil {
		return model.ProxyConfig{}, err
	}
	if _, _, ok := normalized.Credentials(); !ok && (normalized.Username != "" || normalized.Password != "") {
		s.logger.Warn("proxy credentials incomplete, they will not be used", "container_id", containerID)
	}

	event := model.ChangeEvent{Kind: model.ChangeKindSet, ContainerID: containerID, Proxy: &normalized}
	err = s.mutate(ctx, event, func(m model.Mapping) {
		m[containerID] = normalized
	})
	if err != nil {
		s.logger.Error("failed to save proxy configuration", "container_id", containerID, "error", err)
		return model.ProxyConfig{}, err
	}

	s.logger.Info("proxy configuration saved",
		"container_id", containerID,
		"type", normalized.Type,
		"address", normalized.Address(),
		"enabled", normalized.Enabled,
	)
	return normalized, nil
}

// RemoveProxy deletes containerID's entry. Removing an absent entry succeeds.
func (s *ProxyService) RemoveProxy(ctx context.Context, containerID string) error {
	if err := validateContainerID(containerID); err != nil {
		return err
	}

	event := model.ChangeEvent{Kind: model.ChangeKindRemove, ContainerID: containerID}
	err := s.mutate(ctx, event, func(m model.Mapping) {
		delete(m, containerID)
	})
	if err != nil {
		s.logger.Error("failed to remove proxy configuration", "container_id", containerID, "error", err)
		return err
	}

	s.logger.Info("proxy configuration removed", "container_id", containerID)
	return nil
}

// GetProxy returns the stored config for containerID. Disabled entries are
// returned as stored; only dispatch treats them as absent.
func (s *ProxyService) GetProxy(containerID string) (model.ProxyConfig, bool) {
	cfg, ok := s.snapshot.Get()[containerID]
	return cfg, ok
}

// validateContainerID rejects blank IDs. Other IDs are opaque and never
// rewritten, so reads with the same ID find the stored entry.
func validateContainerID(containerID string) error {
	if strings.TrimSpace(containerID) == "" {
		return fmt.Errorf("%w: container id is required", model.ErrValidation)
	}
	return nil
}

// GetAllProxies returns a copy of the whole mapping.
func (s *ProxyService) GetAllProxies() model.Mapping {
	return s.snapshot.Get().Clone()
}

// Snapshot returns the current mapping for read-only use by the resolver and
// the auth responder.
func (s *ProxyService) Snapshot() model.Mapping {
	return s.snapshot.Get()
}

// mutate applies one change to a copy of the mapping, persists it, swaps it
// in, and publishes event, all while holding writeMu so events are delivered
// in commit order.
func (s *ProxyService) mutate(ctx context.Context, event model.ChangeEvent, apply func(m model.Mapping)) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.loaded {
		if err := s.loadLocked(ctx); err != nil {
			return err
		}
	}

	next := s.snapshot.Get().Clone()
	apply(next)

	if err := s.store.Save(ctx, next); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}

	s.snapshot.Replace(next)
	s.publish(event)
	return nil
}

func (s *ProxyService) publish(event model.ChangeEvent) {
	if s.notifier == nil {
		return
	}
	event.At = s.now().UTC()
	s.notifier.Publish(event)
}
