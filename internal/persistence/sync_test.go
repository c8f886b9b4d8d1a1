package persistence

import (
	"context"
	"testing"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/ledger"
	"ledger-service/internal/storage"
	apperrors "ledger-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedStore returns the queued errors one per call, then succeeds
type scriptedStore struct {
	snapshot  []domain.InventoryRecord
	readErr   error
	commitErr []error
	calls     int
}

func (s *scriptedStore) ReadAllInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.snapshot, nil
}

func (s *scriptedStore) ApplyStockCommit(ctx context.Context, commit storage.StockCommit) error {
	s.calls++
	if len(s.commitErr) == 0 {
		return nil
	}
	err := s.commitErr[0]
	s.commitErr = s.commitErr[1:]
	return err
}

func (s *scriptedStore) SaveOrder(ctx context.Context, order *domain.Order) error { return nil }

func (s *scriptedStore) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	return nil
}

func (s *scriptedStore) FindOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return nil, apperrors.NewNotFound("order", orderID.String())
}

func newTestSync(store *scriptedStore) (*Sync, *ledger.Ledger) {
	ldg := ledger.New()
	s := NewSync(store, ldg, time.Second, zap.NewNop())
	s.baseDelay = time.Millisecond
	return s, ldg
}

func TestReload_Success_RebuildsLedger(t *testing.T) {
	recA := domain.NewInventoryRecord(uuid.New(), uuid.New(), 10)
	recB := domain.NewInventoryRecord(uuid.New(), uuid.New(), 5)
	store := &scriptedStore{snapshot: []domain.InventoryRecord{*recA, *recB}}
	s, ldg := newTestSync(store)

	// stale entry that the snapshot no longer contains
	stale := domain.NewInventoryRecord(uuid.New(), uuid.New(), 99)
	ldg.Upsert(*stale)

	err := s.Reload(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, ldg.Len())
	_, ok := ldg.Get(stale.ID)
	assert.False(t, ok)
	got, ok := ldg.Get(recA.ID)
	require.True(t, ok)
	assert.Equal(t, 10, got.CurrentStock)
}

func TestReload_Error_ReadFailureLeavesLedgerUntouched(t *testing.T) {
	store := &scriptedStore{readErr: apperrors.NewConnectionFailure("read", assert.AnError)}
	s, ldg := newTestSync(store)
	existing := domain.NewInventoryRecord(uuid.New(), uuid.New(), 7)
	ldg.Upsert(*existing)

	err := s.Reload(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, ldg.Len())
}

func TestWriteThrough_Success_FirstAttempt(t *testing.T) {
	store := &scriptedStore{}
	s, _ := newTestSync(store)

	err := s.WriteThrough(context.Background(), storage.StockCommit{})

	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
}

func TestWriteThrough_RetriesTransientFailuresThenSucceeds(t *testing.T) {
	store := &scriptedStore{commitErr: []error{
		apperrors.NewConnectionFailure("commit", assert.AnError),
		apperrors.NewTimeout("commit", assert.AnError),
	}}
	s, _ := newTestSync(store)

	err := s.WriteThrough(context.Background(), storage.StockCommit{})

	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
}

func TestWriteThrough_Error_NonRetryableFailsImmediately(t *testing.T) {
	store := &scriptedStore{commitErr: []error{
		apperrors.NewConstraintViolation("duplicate pair", ""),
	}}
	s, _ := newTestSync(store)

	err := s.WriteThrough(context.Background(), storage.StockCommit{})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConstraintViolation, apperrors.CodeOf(err))
	assert.Equal(t, 1, store.calls)
}

func TestWriteThrough_Error_ExhaustedRetriesReturnsLastError(t *testing.T) {
	store := &scriptedStore{commitErr: []error{
		apperrors.NewConnectionFailure("commit", assert.AnError),
		apperrors.NewConnectionFailure("commit", assert.AnError),
		apperrors.NewTimeout("commit", assert.AnError),
	}}
	s, _ := newTestSync(store)

	err := s.WriteThrough(context.Background(), storage.StockCommit{})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTimeout, apperrors.CodeOf(err))
	assert.Equal(t, 3, store.calls)
}

func TestWriteThrough_Error_CancelledContextStopsRetrying(t *testing.T) {
	store := &scriptedStore{commitErr: []error{
		apperrors.NewConnectionFailure("commit", assert.AnError),
	}}
	s, _ := newTestSync(store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.WriteThrough(ctx, storage.StockCommit{})

	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTimeout, apperrors.CodeOf(err))
	assert.Equal(t, 1, store.calls)
}
