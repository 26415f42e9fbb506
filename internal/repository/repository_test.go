package repository

import (
	"context"
	"errors"
	"testing"

	"adboard/internal/domain"
	"adboard/internal/infrastructure/kv"
	"adboard/internal/infrastructure/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	kv.Store
	err error
}

func (f failingStore) Get(context.Context, string) (string, error) { return "", f.err }

func (f failingStore) Set(context.Context, string, string) error { return f.err }

func newRepo(t *testing.T, store kv.Store) (AdRepository, *metrics.StoreMetrics) {
	t.Helper()
	m := metrics.NewStoreMetrics(prometheus.NewRegistry())
	return NewKVAdRepository(store, m), m
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	repo, _ := newRepo(t, store)

	ads := []domain.Ad{
		{ID: "b", Title: "Lamp", Description: "", Price: 0, ImageURL: "http://x/y.png"},
		{ID: "a", Title: "CRT монитор Samsung", Description: "Самовывоз.", Price: 15000.5, ImageURL: "data:image/png;base64,AAAA"},
	}
	require.NoError(t, repo.SaveAds(ctx, ads))

	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"imageUrl":"http://x/y.png"`)

	loaded, err := repo.LoadAds(ctx)
	require.NoError(t, err)
	assert.Equal(t, ads, loaded)
}

func TestSaveEmptyCollectionStoresArray(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	repo, _ := newRepo(t, store)

	require.NoError(t, repo.SaveAds(ctx, nil))

	raw, err := store.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	loaded, err := repo.LoadAds(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadAdsStorageReadErrors(t *testing.T) {
	tests := []struct {
		name   string
		stored *string
		status string
	}{
		{name: "missing", stored: nil, status: "not_found"},
		{name: "garbage", stored: ptr("{not json"), status: "error"},
		{name: "object instead of array", stored: ptr(`{"id":"1"}`), status: "error"},
		{name: "null", stored: ptr("null"), status: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := kv.NewMemoryStore()
			if tt.stored != nil {
				require.NoError(t, store.Set(ctx, StorageKey, *tt.stored))
			}
			repo, m := newRepo(t, store)

			_, err := repo.LoadAds(ctx)
			assert.ErrorIs(t, err, ErrStorageRead)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.OpCount.WithLabelValues("LoadAds", tt.status)))
		})
	}
}

func TestLoadAdsBackendFailureIsStorageRead(t *testing.T) {
	boom := errors.New("redis down")
	repo, _ := newRepo(t, failingStore{err: boom})

	_, err := repo.LoadAds(context.Background())
	assert.ErrorIs(t, err, ErrStorageRead)
	assert.ErrorIs(t, err, boom)
}

func TestSaveAdsPropagatesStoreError(t *testing.T) {
	boom := errors.New("disk full")
	repo, m := newRepo(t, failingStore{err: boom})

	err := repo.SaveAds(context.Background(), []domain.Ad{{ID: "1", Title: "t", ImageURL: "u"}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpCount.WithLabelValues("SaveAds", "error")))
}

func ptr(s string) *string { return &s }
