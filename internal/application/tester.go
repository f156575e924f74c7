package application

import (
	"log/slog"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// TestResult is the answer to a testProxy request.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProxyTester checks a proxy config before it is saved. It only validates
// the config's shape and never opens a connection.
type ProxyTester struct {
	logger *slog.Logger
}

// NewProxyTester creates a ProxyTester.
func NewProxyTester(logger *slog.Logger) *ProxyTester {
	return &ProxyTester{logger: logger}
}

// Test validates cfg.
func (t *ProxyTester) Test(cfg model.ProxyConfig) TestResult {
	if err := cfg.Validate(); err != nil {
		t.logger.Warn("proxy test failed", "error", err)
		return TestResult{Success: false, Message: "Proxy test failed: " + err.Error()}
	}

	t.logger.Info("testing proxy connection", "address", cfg.Address())
	return TestResult{Success: true, Message: "Proxy configuration saved successfully"}
}
