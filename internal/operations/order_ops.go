package operations

import (
	"context"
	"fmt"

	"ledger-service/internal/domain"
	"ledger-service/internal/events"
	"ledger-service/internal/storage"
	apperrors "ledger-service/pkg/errors"

	"github.com/google/uuid"
)

// Order-facing batch mutators. A state transition's ledger work is staged
// line by line on copies and written through as one commit, so a failure on
// any line leaves every other line untouched: the reservations already
// staged for earlier lines are discarded, never made visible.

// staging accumulates per-line record copies, deduplicated by record id so
// two lines of the same product mutate the same staged copy.
type staging struct {
	order    []uuid.UUID
	records  map[uuid.UUID]*domain.InventoryRecord
	original map[uuid.UUID]int // current stock before staging
}

func newStaging() *staging {
	return &staging{
		records:  make(map[uuid.UUID]*domain.InventoryRecord),
		original: make(map[uuid.UUID]int),
	}
}

func (st *staging) get(record domain.InventoryRecord) *domain.InventoryRecord {
	if staged, ok := st.records[record.ID]; ok {
		return staged
	}
	staged := record
	st.records[record.ID] = &staged
	st.original[record.ID] = record.CurrentStock
	st.order = append(st.order, record.ID)
	return &staged
}

func (st *staging) delta(id uuid.UUID) int {
	return st.records[id].CurrentStock - st.original[id]
}

func (st *staging) all() []domain.InventoryRecord {
	out := make([]domain.InventoryRecord, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, *st.records[id])
	}
	return out
}

// ReserveForOrder places holds for every line at the order's location.
// First failure aborts the whole batch with nothing applied.
func (s *Service) ReserveForOrder(ctx context.Context, orderLines []OrderLine, locationID, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newStaging()
	for _, line := range orderLines {
		if line.Quantity <= 0 {
			return apperrors.NewInvalidInput("reserve quantity must be positive",
				fmt.Sprintf("Product: %s, Quantity: %d", line.ProductID, line.Quantity))
		}
		record, ok := s.ledger.GetByProductAndLocation(line.ProductID, locationID)
		if !ok {
			return apperrors.NewNotFound("inventory record",
				fmt.Sprintf("%s@%s", line.ProductID, locationID))
		}
		staged := st.get(record)
		available := staged.AvailableStock()
		if err := staged.Reserve(line.Quantity); err != nil {
			return apperrors.NewInsufficientStock(available, line.Quantity)
		}
	}

	commit := storage.StockCommit{Records: st.all()}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return err
	}

	s.applyStaged(ctx, st, orderLines, true)
	return nil
}

// ReleaseForOrder removes the holds placed for every line
func (s *Service) ReleaseForOrder(ctx context.Context, orderLines []OrderLine, locationID, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newStaging()
	for _, line := range orderLines {
		if line.Quantity <= 0 {
			return apperrors.NewInvalidInput("release quantity must be positive",
				fmt.Sprintf("Product: %s, Quantity: %d", line.ProductID, line.Quantity))
		}
		record, ok := s.ledger.GetByProductAndLocation(line.ProductID, locationID)
		if !ok {
			return apperrors.NewNotFound("inventory record",
				fmt.Sprintf("%s@%s", line.ProductID, locationID))
		}
		staged := st.get(record)
		reserved := staged.ReservedStock
		if err := staged.Release(line.Quantity); err != nil {
			return apperrors.NewInvalidRelease(reserved, line.Quantity)
		}
	}

	commit := storage.StockCommit{Records: st.all()}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return err
	}

	s.applyStaged(ctx, st, orderLines, false)
	return nil
}

// FulfillSale converts the holds of a Sale order into actual stock
// decreases, one sale-typed transaction per line, all in one commit
func (s *Service) FulfillSale(ctx context.Context, orderLines []OrderLine, locationID, orderID uuid.UUID, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newStaging()
	transactions := make([]domain.StockTransaction, 0, len(orderLines))
	for _, line := range orderLines {
		if line.Quantity <= 0 {
			return apperrors.NewInvalidInput("fulfill quantity must be positive",
				fmt.Sprintf("Product: %s, Quantity: %d", line.ProductID, line.Quantity))
		}
		record, ok := s.ledger.GetByProductAndLocation(line.ProductID, locationID)
		if !ok {
			return apperrors.NewNotFound("inventory record",
				fmt.Sprintf("%s@%s", line.ProductID, locationID))
		}
		staged := st.get(record)
		reserved := staged.ReservedStock
		if err := staged.Fulfill(line.Quantity); err != nil {
			return apperrors.NewInvalidRelease(reserved, line.Quantity)
		}
		txn := domain.NewStockTransaction(line.ProductID, locationID, domain.TransactionSale,
			-line.Quantity, "sale order fulfillment", actorID).WithReference(orderID)
		transactions = append(transactions, *txn)
	}

	commit := storage.StockCommit{Records: st.all(), Transactions: transactions}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return err
	}

	for _, record := range st.all() {
		s.ledger.Upsert(record)
		s.publish(ctx, events.StockAdjustedEvent{
			InventoryID: record.ID,
			ProductID:   record.ProductID,
			LocationID:  record.LocationID,
			Delta:       st.delta(record.ID),
			NewTotal:    record.CurrentStock,
			OccurredAt:  record.LastUpdated,
		})
	}
	return nil
}

// ReceivePurchase increments stock for every line of a Purchase order at
// the receiving location, creating records for first-seen products
func (s *Service) ReceivePurchase(ctx context.Context, orderLines []OrderLine, locationID, orderID uuid.UUID, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := newStaging()
	transactions := make([]domain.StockTransaction, 0, len(orderLines))
	for _, line := range orderLines {
		if line.Quantity <= 0 {
			return apperrors.NewInvalidInput("receive quantity must be positive",
				fmt.Sprintf("Product: %s, Quantity: %d", line.ProductID, line.Quantity))
		}
		record, ok := s.ledger.GetByProductAndLocation(line.ProductID, locationID)
		if !ok {
			record = *domain.NewInventoryRecord(line.ProductID, locationID, 0)
		}
		staged := st.get(record)
		if err := staged.Adjust(line.Quantity); err != nil {
			return apperrors.NewUnexpected("failed to stage received stock", err)
		}
		txn := domain.NewStockTransaction(line.ProductID, locationID, domain.TransactionPurchase,
			line.Quantity, "purchase order receipt", actorID).WithReference(orderID)
		transactions = append(transactions, *txn)
	}

	commit := storage.StockCommit{Records: st.all(), Transactions: transactions}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return err
	}

	for _, record := range st.all() {
		s.ledger.Upsert(record)
		s.publish(ctx, events.StockAdjustedEvent{
			InventoryID: record.ID,
			ProductID:   record.ProductID,
			LocationID:  record.LocationID,
			Delta:       st.delta(record.ID),
			NewTotal:    record.CurrentStock,
			OccurredAt:  record.LastUpdated,
		})
	}
	return nil
}

// applyStaged makes a reservation batch visible and publishes one event per
// line. Mutation mutex held by the caller.
func (s *Service) applyStaged(ctx context.Context, st *staging, orderLines []OrderLine, reserving bool) {
	for _, record := range st.all() {
		s.ledger.Upsert(record)
	}
	for _, line := range orderLines {
		for _, record := range st.all() {
			if record.ProductID != line.ProductID {
				continue
			}
			if reserving {
				s.publish(ctx, events.StockReservedEvent{
					InventoryID: record.ID,
					Quantity:    line.Quantity,
					Reserved:    record.ReservedStock,
					Available:   record.AvailableStock(),
					OccurredAt:  record.LastUpdated,
				})
			} else {
				s.publish(ctx, events.StockReleasedEvent{
					InventoryID: record.ID,
					Quantity:    line.Quantity,
					Reserved:    record.ReservedStock,
					Available:   record.AvailableStock(),
					OccurredAt:  record.LastUpdated,
				})
			}
			break
		}
	}
}
