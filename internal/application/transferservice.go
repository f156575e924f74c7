package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/containerproxy/internal/domain/port/driven"
)

// TransferService exports the mapping joined with the host's container
// metadata and imports documents back through the ProxyService.
type TransferService struct {
	proxies  *ProxyService
	registry driven.ContainerRegistry
	logger   *slog.Logger
	now      func() time.Time
}

// NewTransferService creates a TransferService. registry may be nil, in
// which case exports carry container IDs only.
func NewTransferService(proxies *ProxyService, registry driven.ContainerRegistry, logger *slog.Logger) *TransferService {
	return &TransferService{
		proxies:  proxies,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Export builds a document from the current mapping and registry snapshot.
func (s *TransferService) Export(ctx context.Context) (Document, error) {
	mapping := s.proxies.Snapshot()

	if s.registry == nil {
		return Export(mapping, nil, s.now()), nil
	}

	containers, err := s.registry.List(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("list containers: %w", err)
	}
	return Export(mapping, containers, s.now()), nil
}

// Import applies doc and logs a summary. Per-entry failures are returned in
// the result, not as an error.
func (s *TransferService) Import(ctx context.Context, doc Document) ImportResult {
	res := Import(ctx, doc, s.proxies)

	if len(res.Errors) > 0 {
		s.logger.Warn("proxy configuration import finished with errors",
			"applied", res.Applied,
			"skipped", res.Skipped,
			"failed", len(res.Errors),
			"error", res.Err(),
		)
	} else {
		s.logger.Info("proxy configuration import finished",
			"applied", res.Applied,
			"skipped", res.Skipped,
		)
	}
	return res
}

// Filename returns the suggested download name for an export taken now.
func (s *TransferService) Filename(format Format) string {
	ext := "json"
	if format == FormatYAML {
		ext = "yaml"
	}
	return fmt.Sprintf("container-proxy-config-%s.%s", s.now().UTC().Format(time.DateOnly), ext)
}
