package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "127.0.0.1:8181"},
		{raw: "garbage", want: "127.0.0.1:8181"},
		{raw: "0.0.0.0:9000", want: "127.0.0.1:9000"},
		{raw: ":9000", want: "127.0.0.1:9000"},
		{raw: "10.1.2.3:8181", want: "10.1.2.3:8181"},
		{raw: "[::1]:8181", want: "[::1]:8181"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.raw))
		})
	}
}

func TestCheckAddr(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{name: "healthy", status: http.StatusOK, body: `{"status":"ok"}`, want: 0},
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"x"}`, want: 1},
		{name: "wrong body", status: http.StatusOK, body: `<html>`, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/health", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			assert.Equal(t, tt.want, checkAddr(strings.TrimPrefix(srv.URL, "http://")))
		})
	}
}
