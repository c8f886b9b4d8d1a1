package ledger

import (
	"testing"

	"ledger-service/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(productID, locationID uuid.UUID, current, reserved int) domain.InventoryRecord {
	rec := domain.NewInventoryRecord(productID, locationID, current)
	rec.ReservedStock = reserved
	return *rec
}

func TestUpsertAndGet(t *testing.T) {
	l := New()
	rec := record(uuid.New(), uuid.New(), 10, 2)

	l.Upsert(rec)

	got, ok := l.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 10, got.CurrentStock)
	assert.Equal(t, 2, got.ReservedStock)
}

func TestGet_Missing(t *testing.T) {
	l := New()

	_, ok := l.Get(uuid.New())
	assert.False(t, ok)
}

func TestGetByProductAndLocation(t *testing.T) {
	l := New()
	rec := record(uuid.New(), uuid.New(), 10, 0)
	l.Upsert(rec)

	got, ok := l.GetByProductAndLocation(rec.ProductID, rec.LocationID)
	require.True(t, ok)
	assert.Equal(t, rec.ID, got.ID)

	_, ok = l.GetByProductAndLocation(rec.ProductID, uuid.New())
	assert.False(t, ok)
}

func TestUpsert_ReplaceKeepsIndexesConsistent(t *testing.T) {
	l := New()
	rec := record(uuid.New(), uuid.New(), 10, 0)
	l.Upsert(rec)

	rec.CurrentStock = 25
	l.Upsert(rec)

	got, ok := l.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, 25, got.CurrentStock)
	assert.Len(t, l.GetByProduct(rec.ProductID), 1)
	assert.Len(t, l.GetByLocation(rec.LocationID), 1)
}

// A location change must tear down the stale index buckets before linking
// the new ones
func TestUpsert_LocationChangeReindexes(t *testing.T) {
	l := New()
	oldLocation := uuid.New()
	newLocation := uuid.New()
	rec := record(uuid.New(), oldLocation, 10, 0)
	l.Upsert(rec)

	rec.LocationID = newLocation
	l.Upsert(rec)

	assert.Empty(t, l.GetByLocation(oldLocation))
	assert.Len(t, l.GetByLocation(newLocation), 1)
	_, ok := l.GetByProductAndLocation(rec.ProductID, oldLocation)
	assert.False(t, ok)
	got, ok := l.GetByProductAndLocation(rec.ProductID, newLocation)
	require.True(t, ok)
	assert.Equal(t, rec.ID, got.ID)
}

func TestRemove_TearsDownAllIndexes(t *testing.T) {
	l := New()
	rec := record(uuid.New(), uuid.New(), 10, 0)
	l.Upsert(rec)

	assert.True(t, l.Remove(rec.ID))

	_, ok := l.Get(rec.ID)
	assert.False(t, ok)
	assert.Empty(t, l.GetByProduct(rec.ProductID))
	assert.Empty(t, l.GetByLocation(rec.LocationID))
	_, ok = l.GetByProductAndLocation(rec.ProductID, rec.LocationID)
	assert.False(t, ok)
}

func TestRemove_Missing(t *testing.T) {
	l := New()
	assert.False(t, l.Remove(uuid.New()))
}

// Index/ground-truth consistency: every record reachable by product is in
// the primary index and vice versa
func TestIndexConsistency_AfterMixedMutations(t *testing.T) {
	l := New()
	productID := uuid.New()

	recs := []domain.InventoryRecord{
		record(productID, uuid.New(), 5, 0),
		record(productID, uuid.New(), 8, 1),
		record(uuid.New(), uuid.New(), 3, 0),
	}
	for _, r := range recs {
		l.Upsert(r)
	}
	l.Remove(recs[1].ID)
	l.Upsert(recs[1])

	byProduct := l.GetByProduct(productID)
	assert.Len(t, byProduct, 2)
	for _, r := range byProduct {
		got, ok := l.Get(r.ID)
		require.True(t, ok)
		assert.Equal(t, r, got)
	}
	assert.Equal(t, 3, l.Len())
}

func TestInitialize_ReplacesEverything(t *testing.T) {
	l := New()
	old := record(uuid.New(), uuid.New(), 10, 0)
	l.Upsert(old)

	fresh := []domain.InventoryRecord{
		record(uuid.New(), uuid.New(), 1, 0),
		record(uuid.New(), uuid.New(), 2, 0),
	}
	l.Initialize(fresh)

	_, ok := l.Get(old.ID)
	assert.False(t, ok)
	assert.Equal(t, 2, l.Len())
	for _, r := range fresh {
		_, ok := l.Get(r.ID)
		assert.True(t, ok)
	}
}

func TestInitialize_LaterDuplicatePairWins(t *testing.T) {
	l := New()
	productID := uuid.New()
	locationID := uuid.New()
	first := record(productID, locationID, 1, 0)
	second := record(productID, locationID, 9, 0)

	l.Initialize([]domain.InventoryRecord{first, second})

	assert.Equal(t, 1, l.Len())
	got, ok := l.GetByProductAndLocation(productID, locationID)
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, 9, got.CurrentStock)
}

func TestAggregates(t *testing.T) {
	l := New()
	productID := uuid.New()
	l.Upsert(record(productID, uuid.New(), 10, 3))
	l.Upsert(record(productID, uuid.New(), 20, 5))
	l.Upsert(record(uuid.New(), uuid.New(), 100, 0))

	assert.Equal(t, 30, l.TotalStockForProduct(productID))
	assert.Equal(t, 8, l.ReservedStockForProduct(productID))
	assert.Equal(t, 22, l.AvailableStockForProduct(productID))
}

func TestLowStock_FiltersAndSortsDeterministically(t *testing.T) {
	l := New()
	l.Upsert(record(uuid.New(), uuid.New(), 2, 0))  // available 2
	l.Upsert(record(uuid.New(), uuid.New(), 9, 4))  // available 5
	l.Upsert(record(uuid.New(), uuid.New(), 50, 0)) // above threshold
	l.Upsert(record(uuid.New(), uuid.New(), 4, 4))  // exhausted, not low

	low := l.LowStock(5)
	require.Len(t, low, 2)
	assert.Equal(t, 2, low[0].AvailableStock())
	assert.Equal(t, 5, low[1].AvailableStock())
}

func TestLowStock_TiesOrderedByProductThenLocation(t *testing.T) {
	l := New()
	a := record(uuid.New(), uuid.New(), 3, 0)
	b := record(uuid.New(), uuid.New(), 3, 0)
	l.Upsert(a)
	l.Upsert(b)

	first := l.LowStock(5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, l.LowStock(5))
	}
	assert.True(t, first[0].ProductID.String() < first[1].ProductID.String())
}

func TestOutOfStock(t *testing.T) {
	l := New()
	exhausted := record(uuid.New(), uuid.New(), 4, 4)
	empty := record(uuid.New(), uuid.New(), 0, 0)
	l.Upsert(exhausted)
	l.Upsert(empty)
	l.Upsert(record(uuid.New(), uuid.New(), 10, 0))

	out := l.OutOfStock()
	require.Len(t, out, 2)
	for _, r := range out {
		assert.Equal(t, 0, r.AvailableStock())
	}
}

// Mutating a returned record must not leak into the indexed state
func TestReadsReturnCopies(t *testing.T) {
	l := New()
	rec := record(uuid.New(), uuid.New(), 10, 0)
	l.Upsert(rec)

	got, _ := l.Get(rec.ID)
	got.CurrentStock = 999

	again, _ := l.Get(rec.ID)
	assert.Equal(t, 10, again.CurrentStock)
}
