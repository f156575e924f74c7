package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

func TestTransferService_Export(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &mockMappingStore{stored: model.Mapping{"c1": socksProxy()}})
	require.NoError(t, svc.Init(ctx))

	reg := &mockRegistry{containers: []model.Container{{ID: "c1", Name: "One", Color: "blue"}}}
	transfer := NewTransferService(svc, reg, discardLogger())
	transfer.now = func() time.Time { return exportTime }

	doc, err := transfer.Export(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Containers, 1)
	assert.Equal(t, "One", doc.Containers[0].Name)
	assert.Equal(t, "2026-10-18T12:00:00Z", doc.Timestamp)
}

func TestTransferService_ExportWithoutRegistry(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &mockMappingStore{stored: model.Mapping{"c1": socksProxy()}})
	require.NoError(t, svc.Init(ctx))

	doc, err := NewTransferService(svc, nil, discardLogger()).Export(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Containers, 1)
	assert.Equal(t, "c1", doc.Containers[0].ID)
}

func TestTransferService_ExportRegistryError(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &mockMappingStore{})
	require.NoError(t, svc.Init(ctx))

	regErr := errors.New("registry unavailable")
	_, err := NewTransferService(svc, &mockRegistry{err: regErr}, discardLogger()).Export(ctx)
	require.ErrorIs(t, err, regErr)
}

func TestTransferService_Import(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, &mockMappingStore{})
	require.NoError(t, svc.Init(ctx))
	transfer := NewTransferService(svc, nil, discardLogger())

	res := transfer.Import(ctx, Document{Containers: []ExportedContainer{
		{ID: "c1", Proxy: &model.ProxyConfig{Type: "HTTP", Host: "h", Port: "80", Enabled: true}},
		{ID: "c2", Proxy: &model.ProxyConfig{Type: "HTTP", Port: "80"}},
	}})

	assert.Equal(t, 1, res.Applied)
	assert.Len(t, res.Errors, 1)
}

func TestTransferService_Filename(t *testing.T) {
	transfer := NewTransferService(nil, nil, discardLogger())
	transfer.now = func() time.Time { return exportTime }

	assert.Equal(t, "container-proxy-config-2026-10-18.json", transfer.Filename(FormatJSON))
	assert.Equal(t, "container-proxy-config-2026-10-18.yaml", transfer.Filename(FormatYAML))
}
