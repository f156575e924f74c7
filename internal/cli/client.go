package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ericfisherdev/containerproxy/internal/apiauth"
	"github.com/ericfisherdev/containerproxy/internal/application"
	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// ErrNotFound is returned when the daemon has no proxy for a container.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// ImportSummary mirrors the daemon's import response.
type ImportSummary struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// Client talks to a containerproxy daemon.
type Client struct {
	baseURL string
	http    *http.Client
	secret  []byte
	subject string
}

// NewClient creates a Client for the daemon at baseURL. When secret is
// non-empty every request carries a freshly minted bearer token.
func NewClient(baseURL string, secret []byte) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		secret:  secret,
		subject: "containerproxyctl",
	}
}

// ListProxies returns the whole mapping.
func (c *Client) ListProxies(ctx context.Context) (model.Mapping, error) {
	var m model.Mapping
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/proxies", nil, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetProxy returns the proxy stored for containerID or ErrNotFound.
func (c *Client) GetProxy(ctx context.Context, containerID string) (model.ProxyConfig, error) {
	var cfg model.ProxyConfig
	err := c.doJSON(ctx, http.MethodGet, containerPath(containerID), nil, &cfg)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return model.ProxyConfig{}, fmt.Errorf("proxy for container %q: %w", containerID, ErrNotFound)
	}
	return cfg, err
}

// SetProxy stores cfg for containerID and returns the stored form.
func (c *Client) SetProxy(ctx context.Context, containerID string, cfg model.ProxyConfig) (model.ProxyConfig, error) {
	var stored model.ProxyConfig
	if err := c.doJSON(ctx, http.MethodPut, containerPath(containerID), cfg, &stored); err != nil {
		return model.ProxyConfig{}, err
	}
	return stored, nil
}

// RemoveProxy deletes containerID's proxy.
func (c *Client) RemoveProxy(ctx context.Context, containerID string) error {
	return c.doJSON(ctx, http.MethodDelete, containerPath(containerID), nil, nil)
}

// TestProxy validates cfg on the daemon without storing it.
func (c *Client) TestProxy(ctx context.Context, cfg model.ProxyConfig) (application.TestResult, error) {
	var res application.TestResult
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/proxies/test", cfg, &res)
	return res, err
}

// Resolve asks the daemon how a request from containerID to requestURL
// would be routed and returns the raw hook answer.
func (c *Client) Resolve(ctx context.Context, containerID, requestURL string) (json.RawMessage, error) {
	body := map[string]string{"containerId": containerID, "url": requestURL}
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/hooks/proxy", body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Export downloads a configuration document and its suggested filename.
func (c *Client) Export(ctx context.Context, format application.Format) ([]byte, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/export?format="+url.QueryEscape(string(format)), "", nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}

	var filename string
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return data, filename, nil
}

// Import uploads a configuration document.
func (c *Client) Import(ctx context.Context, format application.Format, doc io.Reader) (ImportSummary, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/import?format="+url.QueryEscape(string(format)), format.ContentType(), doc)
	if err != nil {
		return ImportSummary{}, err
	}
	defer resp.Body.Close()

	var sum ImportSummary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		return ImportSummary{}, fmt.Errorf("decode import summary: %w", err)
	}
	return sum, nil
}

func containerPath(containerID string) string {
	return "/api/v1/containers/" + url.PathEscape(containerID) + "/proxy"
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do sends a request and turns non-2xx answers into *APIError. The caller
// closes the body of a successful response.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if len(c.secret) > 0 {
		token, err := apiauth.IssueToken(c.secret, c.subject, 5*time.Minute, time.Now())
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		var e struct {
			Error string `json:"error"`
		}
		msg := http.StatusText(resp.StatusCode)
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e); err == nil && e.Error != "" {
			msg = e.Error
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	return resp, nil
}
