package operations

import (
	"context"
	"testing"

	"ledger-service/internal/domain"
	apperrors "ledger-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveForOrder_Success_AllLinesHeld(t *testing.T) {
	svc, ldg, store, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	b := domain.NewInventoryRecord(uuid.New(), locationID, 8)
	ldg.Upsert(*a)
	ldg.Upsert(*b)
	lines := []OrderLine{
		{ProductID: a.ProductID, Quantity: 3},
		{ProductID: b.ProductID, Quantity: 5},
	}

	err := svc.ReserveForOrder(context.Background(), lines, locationID, uuid.New())

	require.NoError(t, err)
	ra, _ := ldg.Get(a.ID)
	rb, _ := ldg.Get(b.ID)
	assert.Equal(t, 3, ra.ReservedStock)
	assert.Equal(t, 5, rb.ReservedStock)
	assert.Len(t, store.lastCommit().Records, 2)
}

// Second line exceeds availability: the first line's hold must not survive
func TestReserveForOrder_Error_SecondLineInsufficientAbortsBatch(t *testing.T) {
	svc, ldg, _, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	b := domain.NewInventoryRecord(uuid.New(), locationID, 2)
	ldg.Upsert(*a)
	ldg.Upsert(*b)
	lines := []OrderLine{
		{ProductID: a.ProductID, Quantity: 3},
		{ProductID: b.ProductID, Quantity: 5},
	}

	err := svc.ReserveForOrder(context.Background(), lines, locationID, uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConstraintViolation, apperrors.CodeOf(err))
	ra, _ := ldg.Get(a.ID)
	rb, _ := ldg.Get(b.ID)
	assert.Equal(t, 0, ra.ReservedStock)
	assert.Equal(t, 0, rb.ReservedStock)
}

// Two lines of the same product accumulate on one staged copy, so the
// availability check sees the earlier line's hold
func TestReserveForOrder_SameProductLinesShareStagedCopy(t *testing.T) {
	svc, ldg, _, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 5)
	ldg.Upsert(*a)
	lines := []OrderLine{
		{ProductID: a.ProductID, Quantity: 3},
		{ProductID: a.ProductID, Quantity: 3},
	}

	err := svc.ReserveForOrder(context.Background(), lines, locationID, uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConstraintViolation, apperrors.CodeOf(err))
	ra, _ := ldg.Get(a.ID)
	assert.Equal(t, 0, ra.ReservedStock)
}

func TestReserveForOrder_Error_UnknownProduct(t *testing.T) {
	svc, _, _, _ := newTestService()
	lines := []OrderLine{{ProductID: uuid.New(), Quantity: 1}}

	err := svc.ReserveForOrder(context.Background(), lines, uuid.New(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

// A non-positive line must be rejected up front: domain.Reserve would wave
// a negative quantity through and drive the hold below zero
func TestReserveForOrder_Error_NonPositiveQuantity(t *testing.T) {
	svc, ldg, store, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	ldg.Upsert(*a)
	lines := []OrderLine{{ProductID: a.ProductID, Quantity: -3}}

	err := svc.ReserveForOrder(context.Background(), lines, locationID, uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
	ra, _ := ldg.Get(a.ID)
	assert.Equal(t, 0, ra.ReservedStock)
	assert.Empty(t, store.commits)
}

func TestReleaseForOrder_Success(t *testing.T) {
	svc, ldg, _, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	a.ReservedStock = 4
	ldg.Upsert(*a)
	lines := []OrderLine{{ProductID: a.ProductID, Quantity: 4}}

	err := svc.ReleaseForOrder(context.Background(), lines, locationID, uuid.New())

	require.NoError(t, err)
	ra, _ := ldg.Get(a.ID)
	assert.Equal(t, 0, ra.ReservedStock)
	assert.Equal(t, 10, ra.CurrentStock)
}

func TestReleaseForOrder_Error_ExceedsReserved(t *testing.T) {
	svc, ldg, _, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	a.ReservedStock = 2
	ldg.Upsert(*a)
	lines := []OrderLine{{ProductID: a.ProductID, Quantity: 3}}

	err := svc.ReleaseForOrder(context.Background(), lines, locationID, uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConstraintViolation, apperrors.CodeOf(err))
	ra, _ := ldg.Get(a.ID)
	assert.Equal(t, 2, ra.ReservedStock)
}

func TestReleaseForOrder_Error_NonPositiveQuantity(t *testing.T) {
	svc, ldg, _, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	a.ReservedStock = 4
	ldg.Upsert(*a)
	lines := []OrderLine{{ProductID: a.ProductID, Quantity: 0}}

	err := svc.ReleaseForOrder(context.Background(), lines, locationID, uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
	ra, _ := ldg.Get(a.ID)
	assert.Equal(t, 4, ra.ReservedStock)
}

func TestFulfillSale_Success_ConvertsHoldsToDecreases(t *testing.T) {
	svc, ldg, store, _ := newTestService()
	locationID := uuid.New()
	orderID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	a.ReservedStock = 3
	b := domain.NewInventoryRecord(uuid.New(), locationID, 8)
	b.ReservedStock = 5
	ldg.Upsert(*a)
	ldg.Upsert(*b)
	lines := []OrderLine{
		{ProductID: a.ProductID, Quantity: 3},
		{ProductID: b.ProductID, Quantity: 5},
	}

	err := svc.FulfillSale(context.Background(), lines, locationID, orderID, "picker")

	require.NoError(t, err)
	ra, _ := ldg.Get(a.ID)
	rb, _ := ldg.Get(b.ID)
	assert.Equal(t, 7, ra.CurrentStock)
	assert.Equal(t, 0, ra.ReservedStock)
	assert.Equal(t, 3, rb.CurrentStock)
	assert.Equal(t, 0, rb.ReservedStock)

	commit := store.lastCommit()
	require.Len(t, commit.Transactions, 2)
	for _, txn := range commit.Transactions {
		assert.Equal(t, domain.TransactionSale, txn.Type)
		assert.Negative(t, txn.Quantity)
		require.NotNil(t, txn.Reference)
		assert.Equal(t, orderID, *txn.Reference)
		assert.Equal(t, "picker", txn.ActorID)
	}
}

func TestFulfillSale_Error_LineExceedsHoldAbortsBatch(t *testing.T) {
	svc, ldg, _, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	a.ReservedStock = 3
	b := domain.NewInventoryRecord(uuid.New(), locationID, 8)
	b.ReservedStock = 1
	ldg.Upsert(*a)
	ldg.Upsert(*b)
	lines := []OrderLine{
		{ProductID: a.ProductID, Quantity: 3},
		{ProductID: b.ProductID, Quantity: 5},
	}

	err := svc.FulfillSale(context.Background(), lines, locationID, uuid.New(), "picker")

	require.Error(t, err)
	ra, _ := ldg.Get(a.ID)
	assert.Equal(t, 10, ra.CurrentStock)
	assert.Equal(t, 3, ra.ReservedStock)
}

func TestFulfillSale_Error_NonPositiveQuantity(t *testing.T) {
	svc, ldg, _, _ := newTestService()
	locationID := uuid.New()
	a := domain.NewInventoryRecord(uuid.New(), locationID, 10)
	a.ReservedStock = 3
	ldg.Upsert(*a)
	lines := []OrderLine{{ProductID: a.ProductID, Quantity: -1}}

	err := svc.FulfillSale(context.Background(), lines, locationID, uuid.New(), "picker")

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
	ra, _ := ldg.Get(a.ID)
	assert.Equal(t, 10, ra.CurrentStock)
	assert.Equal(t, 3, ra.ReservedStock)
}

func TestReceivePurchase_Success_CreatesMissingRecords(t *testing.T) {
	svc, ldg, store, _ := newTestService()
	locationID := uuid.New()
	orderID := uuid.New()
	existing := domain.NewInventoryRecord(uuid.New(), locationID, 4)
	ldg.Upsert(*existing)
	newProduct := uuid.New()
	lines := []OrderLine{
		{ProductID: existing.ProductID, Quantity: 6},
		{ProductID: newProduct, Quantity: 9},
	}

	err := svc.ReceivePurchase(context.Background(), lines, locationID, orderID, "receiver")

	require.NoError(t, err)
	re, _ := ldg.GetByProductAndLocation(existing.ProductID, locationID)
	rn, ok := ldg.GetByProductAndLocation(newProduct, locationID)
	require.True(t, ok)
	assert.Equal(t, 10, re.CurrentStock)
	assert.Equal(t, 9, rn.CurrentStock)

	commit := store.lastCommit()
	require.Len(t, commit.Transactions, 2)
	for _, txn := range commit.Transactions {
		assert.Equal(t, domain.TransactionPurchase, txn.Type)
		assert.Positive(t, txn.Quantity)
	}
}

func TestReceivePurchase_Error_NonPositiveQuantity(t *testing.T) {
	svc, _, _, _ := newTestService()
	lines := []OrderLine{{ProductID: uuid.New(), Quantity: 0}}

	err := svc.ReceivePurchase(context.Background(), lines, uuid.New(), uuid.New(), "receiver")

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.CodeOf(err))
}

// Persistence failure mid-batch leaves no line applied
func TestReceivePurchase_Error_PersistenceFailureAppliesNothing(t *testing.T) {
	svc, ldg, store, _ := newTestService()
	locationID := uuid.New()
	existing := domain.NewInventoryRecord(uuid.New(), locationID, 4)
	ldg.Upsert(*existing)
	store.failWith = apperrors.NewUnexpected("write failed", nil)
	lines := []OrderLine{{ProductID: existing.ProductID, Quantity: 6}}

	err := svc.ReceivePurchase(context.Background(), lines, locationID, uuid.New(), "receiver")

	require.Error(t, err)
	re, _ := ldg.Get(existing.ID)
	assert.Equal(t, 4, re.CurrentStock)
}
