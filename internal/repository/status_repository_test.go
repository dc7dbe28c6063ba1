package repository

import (
	"context"
	"testing"

	"pulse_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatusStoreRoundTrip(t *testing.T) {
	store := NewMemoryStatusStore()
	ctx := context.Background()

	statuses, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, statuses)

	statuses["v1"] = model.StatusStarted
	require.NoError(t, store.Save(ctx, statuses))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusStarted, loaded["v1"])
}

func TestMemoryStatusStoreCopiesOnLoad(t *testing.T) {
	store := NewMemoryStatusStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, map[string]model.VideoStatus{"v1": model.StatusStarted}))

	loaded, _ := store.Load(ctx)
	loaded["v1"] = model.StatusCompleted

	// 调用方修改自己的副本不应影响存储
	again, _ := store.Load(ctx)
	assert.Equal(t, model.StatusStarted, again["v1"])
}
