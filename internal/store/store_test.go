package store_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/entity"
	"github.com/JOHNINFA/crm-fabrica-sub005/internal/store"
)

func testStore(t *testing.T) *store.DraftStore {
	t.Helper()
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires redis)")
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { rdb.Close() })

	return store.NewDraftStore(rdb)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	key := entity.NewDraftKey(entity.KindRoute, "V-roundtrip", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	t.Cleanup(func() { s.Purge(ctx, key.String()) })

	item := entity.LineItem{ItemID: "it-42", Name: "WIDGET", QuantityOrdered: 10, Discount: 1, UnitPrice: 1000, RoleA: true, RoleB: true}
	item.Recompute()
	snapshot := &entity.DraftSnapshot{
		Key:              key,
		Items:            []entity.LineItem{item},
		CapturedAtMillis: time.Now().UnixMilli(),
		Synced:           true,
	}

	require.NoError(t, s.Put(ctx, key, snapshot))

	got, ok := s.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, snapshot, got)
}

func TestGetAbsentKey(t *testing.T) {
	s := testStore(t)

	key := entity.NewDraftKey(entity.KindRoute, "V-missing", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	_, ok := s.Get(context.Background(), key)

	assert.False(t, ok)
}

func TestPurgeByPrefix(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	keep := entity.NewDraftKey(entity.KindRoute, "V-keep", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	t.Cleanup(func() { s.Purge(ctx, keep.String()) })

	var purgeKeys []entity.DraftKey
	for day := 20; day <= 22; day++ {
		purgeKeys = append(purgeKeys, entity.NewDraftKey(entity.KindRoute, "V-purge", time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC)))
	}

	for _, key := range append(purgeKeys, keep) {
		require.NoError(t, s.Put(ctx, key, entity.EmptySnapshot(key)))
	}

	removed, err := s.Purge(ctx, entity.KeyPrefix(entity.KindRoute, "V-purge"))
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, ok := s.Get(ctx, keep)
	assert.True(t, ok)
	for _, key := range purgeKeys {
		_, ok := s.Get(ctx, key)
		assert.False(t, ok)
	}
}
