package repository

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	internalerrors "github.com/m-aksenov/tinymon/internal/errors"
	models "github.com/m-aksenov/tinymon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receivedEnvelope(host string, tick uint64) models.ReceivedEnvelope {
	return models.ReceivedEnvelope{
		Host:       host,
		Tick:       tick,
		Timestamp:  time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(tick) * 10 * time.Second),
		ReceivedAt: time.Date(2026, time.April, 1, 10, 0, 1, 0, time.UTC).Add(time.Duration(tick) * 10 * time.Second),
		RemoteAddr: "127.0.0.1:40000",
		Raw:        []byte(`{"host":"` + host + `","tick":` + strconv.FormatUint(tick, 10) + `,"samples":[]}`),
	}
}

func TestNewMemStorage(t *testing.T) {
	storage := NewMemStorage(16)
	assert.NotNil(t, storage)
	assert.NotNil(t, storage.envelopes)
	assert.Equal(t, 16, storage.retention)
}

func TestMemStorage_SaveAndListEnvelopes(t *testing.T) {
	storage := NewMemStorage(16)
	ctx := context.Background()

	// Store three envelopes for one host
	for tick := uint64(1); tick <= 3; tick++ {
		require.NoError(t, storage.SaveEnvelope(ctx, receivedEnvelope("web-01", tick)))
	}

	// Newest first
	envelopes, err := storage.ListEnvelopes(ctx, "web-01", 10)
	require.NoError(t, err)
	require.Len(t, envelopes, 3)
	assert.Equal(t, uint64(3), envelopes[0].Tick)
	assert.Equal(t, uint64(1), envelopes[2].Tick)

	// The limit caps the result
	envelopes, err = storage.ListEnvelopes(ctx, "web-01", 2)
	require.NoError(t, err)
	require.Len(t, envelopes, 2)
	assert.Equal(t, uint64(3), envelopes[0].Tick)

	// An unknown host is an error
	_, err = storage.ListEnvelopes(ctx, "ghost", 10)
	assert.True(t, errors.Is(err, internalerrors.ErrHostNotFound))
}

func TestMemStorage_RetentionEvictsOldest(t *testing.T) {
	storage := NewMemStorage(3)
	ctx := context.Background()

	for tick := uint64(1); tick <= 5; tick++ {
		require.NoError(t, storage.SaveEnvelope(ctx, receivedEnvelope("web-01", tick)))
	}

	envelopes, err := storage.ListEnvelopes(ctx, "web-01", 10)
	require.NoError(t, err)
	require.Len(t, envelopes, 3)

	// Only the newest three survive
	assert.Equal(t, uint64(5), envelopes[0].Tick)
	assert.Equal(t, uint64(3), envelopes[2].Tick)
}

func TestMemStorage_ListHosts(t *testing.T) {
	storage := NewMemStorage(16)
	ctx := context.Background()

	require.NoError(t, storage.SaveEnvelope(ctx, receivedEnvelope("web-02", 4)))
	require.NoError(t, storage.SaveEnvelope(ctx, receivedEnvelope("web-01", 1)))
	require.NoError(t, storage.SaveEnvelope(ctx, receivedEnvelope("web-01", 2)))

	summaries, err := storage.ListHosts(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Sorted by host name
	assert.Equal(t, "web-01", summaries[0].Host)
	assert.Equal(t, 2, summaries[0].Envelopes)
	assert.Equal(t, uint64(2), summaries[0].LastTick)
	assert.Equal(t, "web-02", summaries[1].Host)
	assert.Equal(t, uint64(4), summaries[1].LastTick)
	assert.False(t, summaries[1].LastSeen.IsZero())
}

func TestMemStorage_PingAndClose(t *testing.T) {
	storage := NewMemStorage(16)
	assert.NoError(t, storage.Ping(context.Background()))
	assert.NoError(t, storage.Close())
}
