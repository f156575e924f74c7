package httphandler

import (
	"encoding/json"
	"net/http"
)

// hookRequest identifies the container a request or challenge came from.
// Hosts name the field either containerId or cookieStoreId.
type hookRequest struct {
	ContainerID   string `json:"containerId"`
	CookieStoreID string `json:"cookieStoreId"`
	URL           string `json:"url"`
}

func (r hookRequest) container() string {
	if r.ContainerID != "" {
		return r.ContainerID
	}
	return r.CookieStoreID
}

// ProxyHook answers the host's per-request routing question. It never
// fails: an undecodable request is routed direct.
func (h *Handler) ProxyHook(w http.ResponseWriter, r *http.Request) {
	var req hookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("undecodable proxy hook request, routing direct", "error", err)
		writeJSON(w, http.StatusOK, DirectResponse{Type: "direct"})
		return
	}

	writeJSON(w, http.StatusOK, toRoutingResponse(h.resolver.Resolve(req.container(), req.URL)))
}

// AuthHook answers a proxy authentication challenge. It never cancels the
// request: without stored credentials the host handles the challenge.
func (h *Handler) AuthHook(w http.ResponseWriter, r *http.Request) {
	var req hookRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn("undecodable auth hook request, declining", "error", err)
		writeJSON(w, http.StatusOK, AuthDeclineResponse{Cancel: false})
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(h.auth.Respond(req.container())))
}
