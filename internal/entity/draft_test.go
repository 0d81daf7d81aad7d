package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/entity"
)

func TestRecomputeDerivedFields(t *testing.T) {
	item := entity.LineItem{
		QuantityOrdered: 10,
		Discount:        1,
		Bonus:           2,
		Returned:        1,
		Expired:         1,
		UnitPrice:       950.5,
	}

	item.Recompute()
	assert.Equal(t, 9, item.Total)
	assert.Equal(t, float64(8555), item.NetValue) // round(9 * 950.5)

	// Recomputing again from the same stored fields changes nothing.
	item.Recompute()
	assert.Equal(t, 9, item.Total)
	assert.Equal(t, float64(8555), item.NetValue)
}

func TestRecomputeAfterMutation(t *testing.T) {
	item := entity.LineItem{QuantityOrdered: 10, UnitPrice: 100}
	item.Recompute()
	require.Equal(t, 10, item.Total)

	item.Returned = 3
	item.Recompute()
	assert.Equal(t, 7, item.Total)
	assert.Equal(t, float64(700), item.NetValue)
}

func TestDraftKeyString(t *testing.T) {
	key := entity.NewDraftKey(entity.KindRoute, "V3", time.Date(2025, 1, 20, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, "draft:cargue:V3:2025-01-20", key.String())
	assert.Equal(t, "2025-01-20", key.Date, "keys are day-granular")
}

func TestKeyPrefixCoversAllDates(t *testing.T) {
	prefix := entity.KeyPrefix(entity.KindRoute, "V3")
	key := entity.NewDraftKey(entity.KindRoute, "V3", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "draft:cargue:V3", prefix)
	assert.Contains(t, key.String(), prefix)
}

func TestParseDateRejectsBadInput(t *testing.T) {
	_, err := entity.ParseDate("20-01-2025")
	assert.Error(t, err)

	_, err = entity.ParseDate("2025-01-20")
	assert.NoError(t, err)
}

func TestIsPlaceholderOnly(t *testing.T) {
	placeholder := entity.LineItem{Name: "Servicio"}
	arepa := entity.LineItem{Name: "AREPA", QuantityOrdered: 5}

	assert.True(t, entity.IsPlaceholderOnly([]entity.LineItem{placeholder}))
	assert.True(t, entity.IsPlaceholderOnly([]entity.LineItem{{Name: "  SERVICIO "}}), "match is case-insensitive and trimmed")
	assert.False(t, entity.IsPlaceholderOnly([]entity.LineItem{{Name: "Servicio", QuantityOrdered: 2}}), "a placeholder with quantity is real data")
	assert.False(t, entity.IsPlaceholderOnly([]entity.LineItem{placeholder, arepa}))
	assert.False(t, entity.IsPlaceholderOnly(nil))
}

func TestSnapshotHasData(t *testing.T) {
	key := entity.NewDraftKey(entity.KindRoute, "V1", time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC))

	empty := entity.EmptySnapshot(key)
	assert.False(t, empty.HasData())
	assert.False(t, empty.Synced)

	placeholderOnly := &entity.DraftSnapshot{Key: key, Items: []entity.LineItem{{Name: "Servicio"}}}
	assert.False(t, placeholderOnly.HasData())

	real := &entity.DraftSnapshot{Key: key, Items: []entity.LineItem{{Name: "AREPA", QuantityOrdered: 5}}}
	assert.True(t, real.HasData())
}
