package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

var exportTime = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestExport_JoinsRegistryAndMapping(t *testing.T) {
	mapping := model.Mapping{
		"firefox-container-1": socksProxy(),
		"stale":               {Type: model.ProxyTypeHTTP, Host: "h", Port: "80"},
	}
	containers := []model.Container{
		{ID: "firefox-container-1", Name: "Personal", Color: "blue"},
		{ID: "firefox-container-2", Name: "Work", Color: "orange"},
	}

	doc := Export(mapping, containers, exportTime)

	assert.Equal(t, DocumentVersion, doc.Version)
	assert.Equal(t, "2026-10-18T12:00:00Z", doc.Timestamp)
	require.Len(t, doc.Containers, 3)

	assert.Equal(t, "Personal", doc.Containers[0].Name)
	require.NotNil(t, doc.Containers[0].Proxy)
	assert.Equal(t, socksProxy(), *doc.Containers[0].Proxy)

	assert.Equal(t, "firefox-container-2", doc.Containers[1].ID)
	assert.Nil(t, doc.Containers[1].Proxy)

	assert.Equal(t, ExportedContainer{ID: "stale", Proxy: &model.ProxyConfig{Type: model.ProxyTypeHTTP, Host: "h", Port: "80"}}, doc.Containers[2])
}

func TestExport_NullProxyEncodesAsNull(t *testing.T) {
	doc := Export(model.Mapping{}, []model.Container{{ID: "c", Name: "n", Color: "red"}}, exportTime)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc, FormatJSON))
	assert.Contains(t, buf.String(), `"proxy": null`)
}

func TestDecode_ImportScenario(t *testing.T) {
	in := `{"containers":[{"id":"c2","proxy":{"type":"HTTP","host":"10.0.0.1","port":"8080","enabled":true}}]}`

	doc, err := Decode(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)

	store := &mockMappingStore{}
	svc, _ := newTestService(t, store)
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	res := Import(ctx, doc, svc)
	assert.Equal(t, 1, res.Applied)
	assert.NoError(t, res.Err())

	cfg, ok := svc.GetProxy("c2")
	require.True(t, ok)
	assert.Equal(t, model.ProxyConfig{Type: model.ProxyTypeHTTP, Host: "10.0.0.1", Port: "8080", Enabled: true}, cfg)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		in     string
	}{
		{name: "empty", format: FormatJSON, in: ""},
		{name: "not json", format: FormatJSON, in: "{"},
		{name: "missing containers", format: FormatJSON, in: `{"version":"1.0.0"}`},
		{name: "null containers", format: FormatJSON, in: `{"containers":null}`},
		{name: "containers not a list", format: FormatJSON, in: `{"containers":{"id":"c"}}`},
		{name: "newer major version", format: FormatJSON, in: `{"version":"2.0.0","containers":[]}`},
		{name: "garbage version", format: FormatJSON, in: `{"version":"latest","containers":[]}`},
		{name: "yaml missing containers", format: FormatYAML, in: "version: 1.0.0\n"},
		{name: "yaml empty", format: FormatYAML, in: ""},
		{name: "yaml containers not a list", format: FormatYAML, in: "containers: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in), tt.format)
			require.ErrorIs(t, err, model.ErrFormat)
		})
	}
}

func TestDecode_AcceptsUnknownFieldsAndMinorVersions(t *testing.T) {
	in := `{
		"version": "1.4.2",
		"timestamp": "2026-01-01T00:00:00Z",
		"generator": "future-exporter",
		"containers": [
			{"id": "c1", "name": "A", "color": "red", "icon": "fingerprint", "proxy": {"type": "socks5", "host": "127.0.0.1", "port": 1080, "enabled": true, "priority": 3}},
			{"id": "c2", "proxy": null}
		]
	}`

	doc, err := Decode(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Containers, 2)
	require.NotNil(t, doc.Containers[0].Proxy)
	assert.Equal(t, model.PortText("1080"), doc.Containers[0].Proxy.Port)
	assert.Nil(t, doc.Containers[1].Proxy)
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			original := model.Mapping{
				"c1": socksProxy(),
				"c2": {Type: model.ProxyTypeHTTP, Host: "10.0.0.1", Port: "8080", Label: "office", Username: "alice", Password: "pw", Enabled: false},
			}
			containers := []model.Container{
				{ID: "c1", Name: "One", Color: "blue"},
				{ID: "c2", Name: "Two", Color: "green"},
				{ID: "c3", Name: "Three", Color: "red"},
			}

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, Export(original, containers, exportTime), format))

			doc, err := Decode(&buf, format)
			require.NoError(t, err)

			svc, _ := newTestService(t, &mockMappingStore{})
			require.NoError(t, svc.Init(ctx))
			res := Import(ctx, doc, svc)

			assert.Equal(t, 2, res.Applied)
			assert.Equal(t, 1, res.Skipped)
			assert.Equal(t, original, svc.GetAllProxies())
			_, ok := svc.GetProxy("c3")
			assert.False(t, ok, "null proxy must stay unset")
		})
	}
}

func TestImport_NullProxyIsNotRemoval(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &mockMappingStore{stored: model.Mapping{"c1": socksProxy()}})
	require.NoError(t, svc.Init(ctx))

	res := Import(ctx, Document{Containers: []ExportedContainer{{ID: "c1"}}}, svc)
	assert.Equal(t, 0, res.Applied)
	assert.Equal(t, 1, res.Skipped)

	_, ok := svc.GetProxy("c1")
	assert.True(t, ok)
}

func TestImport_BestEffort(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &mockMappingStore{})
	require.NoError(t, svc.Init(ctx))

	doc := Document{Containers: []ExportedContainer{
		{ID: "good1", Proxy: &model.ProxyConfig{Type: "HTTP", Host: "h", Port: "80", Enabled: true}},
		{ID: "bad", Proxy: &model.ProxyConfig{Type: "HTTP", Host: "", Port: "80"}},
		{ID: "", Proxy: &model.ProxyConfig{Type: "HTTP", Host: "h", Port: "80"}},
		{ID: "good2", Proxy: &model.ProxyConfig{Type: "SOCKS4", Host: "h", Port: "1080"}},
	}}

	res := Import(ctx, doc, svc)
	assert.Equal(t, 2, res.Applied)
	require.Len(t, res.Errors, 2)
	assert.ErrorIs(t, res.Err(), model.ErrValidation)
	assert.Contains(t, res.Errors[0].Error(), `"bad"`)
	assert.Len(t, svc.GetAllProxies(), 2)
}

func TestImport_ServiceNameHosts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &mockMappingStore{})
	require.NoError(t, svc.Init(ctx))

	doc := Document{Containers: []ExportedContainer{
		{ID: "c1", Proxy: &model.ProxyConfig{Type: "SOCKS5", Host: "proxy_1", Port: "1080", Enabled: true}},
		{ID: "c2", Proxy: &model.ProxyConfig{Type: "HTTP", Host: "my_proxy.internal", Port: "3128", Enabled: true}},
	}}

	res := Import(ctx, doc, svc)
	require.NoError(t, res.Err())
	assert.Equal(t, 2, res.Applied)
}

func TestImport_PersistenceErrorsReported(t *testing.T) {
	ctx := context.Background()
	store := &mockMappingStore{}
	svc, _ := newTestService(t, store)
	require.NoError(t, svc.Init(ctx))
	store.saveErr = errStorage

	res := Import(ctx, Document{Containers: []ExportedContainer{{ID: "c1", Proxy: &model.ProxyConfig{Type: "HTTP", Host: "h", Port: "80"}}}}, svc)
	assert.Equal(t, 0, res.Applied)
	require.Len(t, res.Errors, 1)
	assert.True(t, errors.Is(res.Err(), model.ErrPersistence))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "json", want: FormatJSON},
		{in: ".json", want: FormatJSON},
		{in: "YAML", want: FormatYAML},
		{in: ".yml", want: FormatYAML},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, model.ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "application/yaml", FormatYAML.ContentType())
}
