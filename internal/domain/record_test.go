package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewInventoryRecord(t *testing.T) {
	productID := uuid.New()
	locationID := uuid.New()
	record := NewInventoryRecord(productID, locationID, 100)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, productID, record.ProductID)
	assert.Equal(t, locationID, record.LocationID)
	assert.Equal(t, 100, record.CurrentStock)
	assert.Equal(t, 0, record.ReservedStock)
	assert.Equal(t, 1, record.Version)
	assert.False(t, record.LastUpdated.IsZero())
}

func TestAvailableStock(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 100)
	record.ReservedStock = 30

	assert.Equal(t, 70, record.AvailableStock())
	assert.True(t, record.InStock())
}

func TestInStock_False_WhenFullyReserved(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 40)
	record.ReservedStock = 40

	assert.Equal(t, 0, record.AvailableStock())
	assert.False(t, record.InStock())
}

func TestAdjust_Success_Increase(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 100)
	originalVersion := record.Version

	err := record.Adjust(50)

	assert.NoError(t, err)
	assert.Equal(t, 150, record.CurrentStock)
	assert.Equal(t, originalVersion+1, record.Version)
}

func TestAdjust_Success_DecreaseToReservedFloor(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 20)
	record.ReservedStock = 5

	err := record.Adjust(-15)

	assert.NoError(t, err)
	assert.Equal(t, 5, record.CurrentStock)
	assert.Equal(t, 5, record.ReservedStock)
	assert.Equal(t, 0, record.AvailableStock())
}

func TestAdjust_Error_ExceedsAvailable(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 20)
	record.ReservedStock = 5
	originalVersion := record.Version

	err := record.Adjust(-16)

	assert.Error(t, err)
	assert.Equal(t, ErrInsufficientStock, err)
	assert.Equal(t, 20, record.CurrentStock)
	assert.Equal(t, originalVersion, record.Version)
}

func TestReserve_Success(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 100)
	record.ReservedStock = 20

	err := record.Reserve(30)

	assert.NoError(t, err)
	assert.Equal(t, 50, record.ReservedStock)
	assert.Equal(t, 50, record.AvailableStock())
}

func TestReserve_Error_InsufficientStock(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 100)
	record.ReservedStock = 80

	err := record.Reserve(30)

	assert.Error(t, err)
	assert.Equal(t, ErrInsufficientStock, err)
	assert.Equal(t, 80, record.ReservedStock)
}

func TestRelease_Success(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 100)
	record.ReservedStock = 50

	err := record.Release(20)

	assert.NoError(t, err)
	assert.Equal(t, 30, record.ReservedStock)
	assert.Equal(t, 70, record.AvailableStock())
}

func TestRelease_Error_ExceedsReserved(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 100)
	record.ReservedStock = 30

	err := record.Release(50)

	assert.Error(t, err)
	assert.Equal(t, ErrInvalidReleaseQuantity, err)
	assert.Equal(t, 30, record.ReservedStock)
}

func TestFulfill_Success(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 100)
	record.ReservedStock = 30

	err := record.Fulfill(20)

	assert.NoError(t, err)
	assert.Equal(t, 10, record.ReservedStock)
	assert.Equal(t, 80, record.CurrentStock)
	assert.Equal(t, 70, record.AvailableStock())
}

func TestFulfill_Error_ExceedsReserved(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 100)
	record.ReservedStock = 30

	err := record.Fulfill(50)

	assert.Error(t, err)
	assert.Equal(t, ErrInvalidReleaseQuantity, err)
	assert.Equal(t, 30, record.ReservedStock)
	assert.Equal(t, 100, record.CurrentStock)
}

// Invariant: 0 <= reserved <= current holds through any legal sequence
func TestInvariant_ReservedNeverExceedsCurrent(t *testing.T) {
	record := NewInventoryRecord(uuid.New(), uuid.New(), 10)

	assert.NoError(t, record.Reserve(10))
	assert.Error(t, record.Adjust(-1))
	assert.NoError(t, record.Release(4))
	assert.NoError(t, record.Adjust(-4))

	assert.Equal(t, 6, record.CurrentStock)
	assert.Equal(t, 6, record.ReservedStock)
	assert.GreaterOrEqual(t, record.ReservedStock, 0)
	assert.LessOrEqual(t, record.ReservedStock, record.CurrentStock)
}
