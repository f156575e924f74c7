package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/containerproxy/internal/application"
	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Time    string `json:"time"`
	Proxies int    `json:"proxies"`
}

// ImportResponse summarizes a best-effort import.
type ImportResponse struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// DirectResponse tells the host to connect without a proxy.
type DirectResponse struct {
	Type string `json:"type"`
}

// AuthCredentials is the credential pair handed to the host.
type AuthCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthSupplyResponse answers a proxy challenge with stored credentials.
type AuthSupplyResponse struct {
	AuthCredentials AuthCredentials `json:"authCredentials"`
}

// AuthDeclineResponse lets the host fall back to its own prompt.
type AuthDeclineResponse struct {
	Cancel bool `json:"cancel"`
}

func toImportResponse(res application.ImportResult) ImportResponse {
	errs := make([]string, 0, len(res.Errors))
	for _, err := range res.Errors {
		errs = append(errs, err.Error())
	}
	return ImportResponse{Applied: res.Applied, Skipped: res.Skipped, Errors: errs}
}

// toRoutingResponse renders a decision in the shape the host's request
// interception expects: a direct marker or a one-element descriptor list.
func toRoutingResponse(d model.RoutingDecision) any {
	if d.IsDirect() {
		return DirectResponse{Type: "direct"}
	}
	return []model.ProxyDescriptor{*d.Proxy}
}

func toAuthResponse(d model.AuthDecision) any {
	if !d.Supply {
		return AuthDeclineResponse{Cancel: false}
	}
	return AuthSupplyResponse{AuthCredentials: AuthCredentials{Username: d.Username, Password: d.Password}}
}
