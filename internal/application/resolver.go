package application

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// MappingSource provides read-only access to the current mapping.
// *ProxyService satisfies it.
type MappingSource interface {
	Snapshot() model.Mapping
}

// Resolver decides, per outbound request, whether to connect directly or
// through the request's container proxy. It sits in the hot path of every
// request: it never blocks, never mutates state, and fails open to a direct
// connection on any fault.
type Resolver struct {
	source             MappingSource
	defaultContainerID string
	logger             *slog.Logger
}

// NewResolver creates a Resolver. Requests from defaultContainerID are never
// proxied; an empty value selects model.DefaultContainerID.
func NewResolver(source MappingSource, defaultContainerID string, logger *slog.Logger) *Resolver {
	if defaultContainerID == "" {
		defaultContainerID = model.DefaultContainerID
	}
	return &Resolver{
		source:             source,
		defaultContainerID: defaultContainerID,
		logger:             logger,
	}
}

// Resolve returns the routing decision for a request made from containerID.
// requestURL is used for logging only.
func (r *Resolver) Resolve(containerID, requestURL string) (decision model.RoutingDecision) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("dispatch fault, routing direct",
				"container_id", containerID,
				"error", fmt.Errorf("%w: panic: %v", model.ErrDispatch, v),
			)
			decision = model.Direct
		}
	}()

	if containerID == "" || containerID == r.defaultContainerID {
		return model.Direct
	}

	cfg, ok := r.source.Snapshot()[containerID]
	if !ok || !cfg.Enabled {
		return model.Direct
	}

	descriptor, err := Describe(cfg)
	if err != nil {
		r.logger.Error("dispatch fault, routing direct", "container_id", containerID, "error", err)
		return model.Direct
	}

	r.logger.Debug("routing request through proxy",
		"container_id", containerID,
		"url", requestURL,
		"proxy", cfg.Address(),
	)
	return model.Proxied(descriptor)
}

// Describe builds the host-facing descriptor for cfg. Errors wrap
// model.ErrDispatch.
func Describe(cfg model.ProxyConfig) (model.ProxyDescriptor, error) {
	typ, err := model.ParseProxyType(string(cfg.Type))
	if err != nil {
		return model.ProxyDescriptor{}, fmt.Errorf("%w: %w", model.ErrDispatch, err)
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return model.ProxyDescriptor{}, fmt.Errorf("%w: stored entry has no host", model.ErrDispatch)
	}

	port, err := cfg.Port.Int()
	if err != nil {
		return model.ProxyDescriptor{}, fmt.Errorf("%w: %w", model.ErrDispatch, err)
	}

	d := model.ProxyDescriptor{
		Type:     typ.Tag(),
		Host:     host,
		Port:     port,
		ProxyDNS: typ == model.ProxyTypeSOCKS5,
	}

	// A half-filled pair is treated as no credentials at all, matching the
	// auth responder, so the host prompts instead of sending a bad login.
	if username, password, ok := cfg.Credentials(); ok {
		d.Username = username
		d.Password = password
	}

	return d, nil
}
