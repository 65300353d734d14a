package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "prodtrack/internal/errors"
	"prodtrack/internal/shared/testutil"
	"prodtrack/pkg/contracts"
)

type staticClients int

func (c staticClients) ClientCount() int { return int(c) }

func TestHealthService_Readiness(t *testing.T) {
	t.Run("ready after a successful load", func(t *testing.T) {
		f := newServiceFixture(t, productionColumns())
		f.fetcher.On("Fetch", mock.Anything).Return(mustRaw(t, testutil.ProductionCSV), nil)
		hs := NewHealthService(f.service, staticClients(2), nil)

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "ready", status.Status)
		assert.Equal(t, contracts.Version, status.Version)
		assert.Equal(t, ServiceHealth{Status: "ready"}, status.Services["source"])
	})

	t.Run("not ready when the source fails", func(t *testing.T) {
		f := newServiceFixture(t, productionColumns())
		f.fetcher.On("Fetch", mock.Anything).Return(nil, apperrors.NewConnectionError("refused", assert.AnError))
		logger, _ := testutil.NewTestLogger(t)
		hs := NewHealthService(f.service, nil, logger)

		status := hs.ReadinessCheck(context.Background())
		assert.Equal(t, "not_ready", status.Status)
		source, ok := status.Services["source"].(ServiceHealth)
		require.True(t, ok)
		assert.Equal(t, "not_ready", source.Status)
		assert.Contains(t, source.Message, "refused")
	})

	t.Run("held snapshot skips the source", func(t *testing.T) {
		f := newServiceFixture(t, productionColumns())
		f.fetcher.On("Fetch", mock.Anything).Return(mustRaw(t, testutil.ProductionCSV), nil).Once()
		_, err := f.service.Current(context.Background())
		require.NoError(t, err)

		hs := NewHealthService(f.service, nil, nil)
		assert.Equal(t, "ready", hs.ReadinessCheck(context.Background()).Status)
		f.fetcher.AssertNumberOfCalls(t, "Fetch", 1)
	})
}

func TestHealthService_HealthCheck(t *testing.T) {
	f := newServiceFixture(t, productionColumns())
	f.fetcher.On("Fetch", mock.Anything).Return(mustRaw(t, testutil.ProductionCSV), nil)
	_, err := f.service.Current(context.Background())
	require.NoError(t, err)

	hs := NewHealthService(f.service, staticClients(4), nil)
	status := hs.HealthCheck(context.Background())

	assert.Equal(t, "ok", status.Status)
	cacheInfo, ok := status.Services["cache"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "mock://sheet", cacheInfo["source"])
	assert.Equal(t, "fresh", cacheInfo["state"])
	assert.Equal(t, int64(1), cacheInfo["loads"])

	ws, ok := status.Services["websocket"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 4, ws["clients"])
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	f := newServiceFixture(t, productionColumns())
	hs := NewHealthService(f.service, nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	info := hs.Version()
	assert.Equal(t, contracts.Version, info.Version)
	assert.Equal(t, contracts.APIVersion, info.APIVersion)
	f.fetcher.AssertNotCalled(t, "Fetch", mock.Anything)
}
