package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// Message actions accepted on POST /api/v1/messages.
const (
	ActionSetProxy      = "setProxy"
	ActionRemoveProxy   = "removeProxy"
	ActionGetProxy      = "getProxy"
	ActionGetAllProxies = "getAllProxies"
	ActionTestProxy     = "testProxy"
)

var errUnknownAction = errors.New("unknown action")

// message is the closed set of requests the presentation layer may send.
type message interface {
	validate() error
}

type setProxyMessage struct {
	ContainerID string             `json:"containerId"`
	ProxyConfig *model.ProxyConfig `json:"proxyConfig"`
}

func (m *setProxyMessage) validate() error {
	if m.ProxyConfig == nil {
		return errors.New("proxyConfig is required")
	}
	return nil
}

type removeProxyMessage struct {
	ContainerID string `json:"containerId"`
}

func (m *removeProxyMessage) validate() error { return nil }

type getProxyMessage struct {
	ContainerID string `json:"containerId"`
}

func (m *getProxyMessage) validate() error { return nil }

type getAllProxiesMessage struct{}

func (m *getAllProxiesMessage) validate() error { return nil }

type testProxyMessage struct {
	ProxyConfig *model.ProxyConfig `json:"proxyConfig"`
}

func (m *testProxyMessage) validate() error {
	if m.ProxyConfig == nil {
		return errors.New("proxyConfig is required")
	}
	return nil
}

// decodeMessage reads the action tag and decodes the rest of the body into
// the matching request type.
func decodeMessage(data []byte) (message, error) {
	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFormat, err)
	}

	var msg message
	switch envelope.Action {
	case ActionSetProxy:
		msg = &setProxyMessage{}
	case ActionRemoveProxy:
		msg = &removeProxyMessage{}
	case ActionGetProxy:
		msg = &getProxyMessage{}
	case ActionGetAllProxies:
		msg = &getAllProxiesMessage{}
	case ActionTestProxy:
		msg = &testProxyMessage{}
	default:
		return nil, fmt.Errorf("%w %q", errUnknownAction, envelope.Action)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrFormat, envelope.Action, err)
	}
	if err := msg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrFormat, envelope.Action, err)
	}
	return msg, nil
}

// HandleMessage serves the action-keyed message protocol. Every answer is a
// plain JSON value: a boolean for mutations, the stored config or null for
// getProxy, the mapping for getAllProxies, and a test result for testProxy.
// Requests that cannot be decoded answer false.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("unreadable message", "error", err)
		writeJSON(w, http.StatusOK, false)
		return
	}

	msg, err := decodeMessage(data)
	if err != nil {
		h.logger.Warn("rejected message", "error", err)
		writeJSON(w, http.StatusOK, false)
		return
	}

	writeJSON(w, http.StatusOK, h.dispatch(r.Context(), msg))
}

func (h *Handler) dispatch(ctx context.Context, msg message) any {
	switch m := msg.(type) {
	case *setProxyMessage:
		if _, err := h.proxies.SetProxy(ctx, m.ContainerID, *m.ProxyConfig); err != nil {
			if errors.Is(err, model.ErrValidation) {
				h.logger.Warn("proxy configuration rejected", "container_id", m.ContainerID, "error", err)
			}
			return false
		}
		return true

	case *removeProxyMessage:
		if err := h.proxies.RemoveProxy(ctx, m.ContainerID); err != nil {
			if errors.Is(err, model.ErrValidation) {
				h.logger.Warn("proxy removal rejected", "container_id", m.ContainerID, "error", err)
			}
			return false
		}
		return true

	case *getProxyMessage:
		cfg, ok := h.proxies.GetProxy(m.ContainerID)
		if !ok {
			return nil
		}
		return cfg

	case *getAllProxiesMessage:
		return h.proxies.GetAllProxies()

	case *testProxyMessage:
		return h.tester.Test(*m.ProxyConfig)

	default:
		return false
	}
}
