package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/containerproxy/internal/application"
	"github.com/ericfisherdev/containerproxy/internal/domain/model"
	"github.com/ericfisherdev/containerproxy/internal/domain/port/driven"
)

// maxBodyBytes caps request bodies other than imports.
const maxBodyBytes = 1 << 20

// ContainerDirectory is the host's container list, readable for exports and
// replaceable when the host pushes a fresh snapshot.
type ContainerDirectory interface {
	driven.ContainerRegistry
	Replace(containers []model.Container)
}

// Handler is the HTTP driving adapter that serves the REST API, the message
// protocol and the host hooks.
type Handler struct {
	proxies    *application.ProxyService
	resolver   *application.Resolver
	auth       *application.AuthResponder
	transfer   *application.TransferService
	tester     *application.ProxyTester
	containers ContainerDirectory
	events     http.Handler
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. events may be
// nil, in which case the change stream route is not registered.
func NewHandler(
	proxies *application.ProxyService,
	resolver *application.Resolver,
	auth *application.AuthResponder,
	transfer *application.TransferService,
	tester *application.ProxyTester,
	containers ContainerDirectory,
	events http.Handler,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		proxies:    proxies,
		resolver:   resolver,
		auth:       auth,
		transfer:   transfer,
		tester:     tester,
		containers: containers,
		events:     events,
		logger:     logger,
	}
}

// RegisterRoutes registers all API routes on mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /api/v1/messages", h.HandleMessage)

	mux.HandleFunc("POST /api/v1/hooks/proxy", h.ProxyHook)
	mux.HandleFunc("POST /api/v1/hooks/auth", h.AuthHook)

	mux.HandleFunc("GET /api/v1/proxies", h.ListProxies)
	mux.HandleFunc("POST /api/v1/proxies/test", h.TestProxy)
	mux.HandleFunc("GET /api/v1/containers", h.ListContainers)
	mux.HandleFunc("PUT /api/v1/containers", h.ReplaceContainers)
	mux.HandleFunc("GET /api/v1/containers/{id}/proxy", h.GetProxy)
	mux.HandleFunc("PUT /api/v1/containers/{id}/proxy", h.SetProxy)
	mux.HandleFunc("DELETE /api/v1/containers/{id}/proxy", h.RemoveProxy)

	mux.HandleFunc("GET /api/v1/export", h.Export)
	mux.HandleFunc("POST /api/v1/import", h.Import)

	if h.events != nil {
		mux.Handle("GET /api/v1/events", h.events)
	}

	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with the standard middleware stack.
func NewServeMux(h *Handler, logger *slog.Logger, tokens TokenVerifier) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, h)
	return ApplyMiddleware(mux, logger, tokens)
}

// ListProxies returns the whole mapping.
func (h *Handler) ListProxies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.proxies.GetAllProxies())
}

// GetProxy returns the proxy stored for one container, including disabled
// entries.
func (h *Handler) GetProxy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	cfg, ok := h.proxies.GetProxy(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no proxy configured for container")
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// SetProxy stores the request body as the container's proxy.
func (h *Handler) SetProxy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var cfg model.ProxyConfig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stored, err := h.proxies.SetProxy(r.Context(), id, cfg)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stored)
}

// RemoveProxy deletes the container's proxy. Removing an absent entry
// succeeds.
func (h *Handler) RemoveProxy(w http.ResponseWriter, r *http.Request) {
	if err := h.proxies.RemoveProxy(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TestProxy validates a proxy config without storing it.
func (h *Handler) TestProxy(w http.ResponseWriter, r *http.Request) {
	var cfg model.ProxyConfig
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, h.tester.Test(cfg))
}

// ListContainers returns the host's container list.
func (h *Handler) ListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := h.containers.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list containers", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if containers == nil {
		containers = []model.Container{}
	}
	writeJSON(w, http.StatusOK, containers)
}

// ReplaceContainers swaps the host's container list for the request body.
// A list with an empty or duplicate ID is rejected whole.
func (h *Handler) ReplaceContainers(w http.ResponseWriter, r *http.Request) {
	var containers []model.Container
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&containers); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidateContainers(containers); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.containers.Replace(containers)
	h.logger.Info("container registry replaced", "containers", len(containers))

	h.ListContainers(w, r)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Proxies: len(h.proxies.Snapshot()),
	})
}

// writeServiceError maps a Configuration API error to a status code.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "failed to save proxy configuration")
	default:
		h.logger.Error("unexpected configuration error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
