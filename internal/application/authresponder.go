package application

import (
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// AuthResponder answers proxy authentication challenges from stored
// credentials. It never prompts and never cancels a request: without a
// complete username/password pair it declines and lets the host fall back
// to its own credential flow.
type AuthResponder struct {
	source MappingSource
	logger *slog.Logger
}

// NewAuthResponder creates an AuthResponder reading from source.
func NewAuthResponder(source MappingSource, logger *slog.Logger) *AuthResponder {
	return &AuthResponder{source: source, logger: logger}
}

// Respond returns the credentials stored for containerID, or model.Decline.
func (a *AuthResponder) Respond(containerID string) (decision model.AuthDecision) {
	defer func() {
		if v := recover(); v != nil {
			a.logger.Error("auth responder fault, declining",
				"container_id", containerID,
				"error", fmt.Errorf("%w: panic: %v", model.ErrDispatch, v),
			)
			decision = model.Decline
		}
	}()

	if containerID == "" {
		return model.Decline
	}

	cfg, ok := a.source.Snapshot()[containerID]
	if !ok {
		return model.Decline
	}

	username, password, ok := cfg.Credentials()
	if !ok {
		if cfg.Username != "" || cfg.Password != "" {
			a.logger.Warn("incomplete proxy credentials, declining", "container_id", containerID)
		}
		return model.Decline
	}

	a.logger.Debug("supplying proxy credentials", "container_id", containerID)
	return model.Supply(username, password)
}
