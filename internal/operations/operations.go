package operations

import (
	"context"
	"fmt"
	"sync"

	"ledger-service/internal/domain"
	"ledger-service/internal/events"
	"ledger-service/internal/ledger"
	"ledger-service/internal/persistence"
	"ledger-service/internal/storage"
	apperrors "ledger-service/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service holds the only sanctioned mutators of the ledger. Every operation
// runs validate, persist, apply in that order inside one critical section:
// the mutation is staged on copies, written through to durable storage, and
// only then made visible in the ledger. A persistence failure discards the
// staged copies, so the ledger never records a change that was never
// persisted, and two concurrent reservations can never both pass the same
// availability check.
type Service struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	sync      *persistence.Sync
	publisher events.Publisher
	logger    *zap.Logger
}

// NewService creates the operations service
func NewService(ldg *ledger.Ledger, sync *persistence.Sync, publisher events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		ledger:    ldg,
		sync:      sync,
		publisher: publisher,
		logger:    logger,
	}
}

// OrderLine is the (product, quantity) tuple fulfillment hands the ledger.
// The ledger never holds a reference to an Order.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateInventory registers stock for a (product, location) pair that has
// none yet
func (s *Service) CreateInventory(ctx context.Context, productID, locationID uuid.UUID, initialStock int, actorID string) (domain.InventoryRecord, error) {
	if initialStock < 0 {
		return domain.InventoryRecord{}, apperrors.NewInvalidInput("initial stock must not be negative",
			fmt.Sprintf("Initial: %d", initialStock))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ledger.GetByProductAndLocation(productID, locationID); exists {
		return domain.InventoryRecord{}, apperrors.NewConstraintViolation(
			"inventory already exists for product and location",
			fmt.Sprintf("Product: %s, Location: %s", productID, locationID))
	}

	record := domain.NewInventoryRecord(productID, locationID, initialStock)
	txn := domain.NewStockTransaction(productID, locationID, domain.TransactionAdjustment, initialStock,
		"initial stock registration", actorID)

	commit := storage.StockCommit{
		Records:      []domain.InventoryRecord{*record},
		Transactions: []domain.StockTransaction{*txn},
	}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return domain.InventoryRecord{}, err
	}

	s.ledger.Upsert(*record)
	s.publish(ctx, events.InventoryCreatedEvent{
		InventoryID:  record.ID,
		ProductID:    productID,
		LocationID:   locationID,
		InitialStock: initialStock,
		OccurredAt:   record.LastUpdated,
	})

	s.logger.Info("Inventory created",
		zap.String("inventory_id", record.ID.String()),
		zap.String("product_id", productID.String()),
		zap.String("location_id", locationID.String()),
		zap.Int("initial_stock", initialStock),
	)
	return *record, nil
}

// Adjust changes current stock by delta and writes an adjustment
// transaction. A negative delta may not consume more than the available
// stock.
func (s *Service) Adjust(ctx context.Context, inventoryID uuid.UUID, delta int, notes, actorID string) (domain.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.adjustLocked(ctx, inventoryID, delta, domain.TransactionAdjustment, notes, actorID, nil)
}

// adjustLocked stages, persists and applies one stock adjustment. Mutation
// mutex held by the caller.
func (s *Service) adjustLocked(ctx context.Context, inventoryID uuid.UUID, delta int, txType domain.TransactionType, notes, actorID string, reference *uuid.UUID) (domain.InventoryRecord, error) {
	record, ok := s.ledger.Get(inventoryID)
	if !ok {
		return domain.InventoryRecord{}, apperrors.NewNotFound("inventory record", inventoryID.String())
	}

	available := record.AvailableStock()
	if err := record.Adjust(delta); err != nil {
		return domain.InventoryRecord{}, apperrors.NewInsufficientStock(available, -delta)
	}

	txn := domain.NewStockTransaction(record.ProductID, record.LocationID, txType, delta, notes, actorID)
	if reference != nil {
		txn.WithReference(*reference)
	}

	commit := storage.StockCommit{
		Records:      []domain.InventoryRecord{record},
		Transactions: []domain.StockTransaction{*txn},
	}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return domain.InventoryRecord{}, err
	}

	s.ledger.Upsert(record)
	s.publish(ctx, events.StockAdjustedEvent{
		InventoryID: record.ID,
		ProductID:   record.ProductID,
		LocationID:  record.LocationID,
		Delta:       delta,
		NewTotal:    record.CurrentStock,
		OccurredAt:  record.LastUpdated,
	})
	return record, nil
}

// Transfer moves quantity between two locations of the same product. Both
// sides apply or neither does: the staged records, the movement and the two
// transfer transactions go down in one commit, and the ledger is only
// touched after the commit succeeds.
func (s *Service) Transfer(ctx context.Context, productID, fromLocationID, toLocationID uuid.UUID, quantity int, notes, actorID string) error {
	if quantity <= 0 {
		return apperrors.NewInvalidInput("transfer quantity must be positive", fmt.Sprintf("Quantity: %d", quantity))
	}
	if fromLocationID == toLocationID {
		return apperrors.NewInvalidInput("transfer source and destination must differ",
			fmt.Sprintf("Location: %s", fromLocationID))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.ledger.GetByProductAndLocation(productID, fromLocationID)
	if !ok {
		return apperrors.NewNotFound("inventory record at source location",
			fmt.Sprintf("%s@%s", productID, fromLocationID))
	}

	available := source.AvailableStock()
	if err := source.Adjust(-quantity); err != nil {
		return apperrors.NewInsufficientStock(available, quantity)
	}

	destination, ok := s.ledger.GetByProductAndLocation(productID, toLocationID)
	if !ok {
		destination = *domain.NewInventoryRecord(productID, toLocationID, 0)
	}
	if err := destination.Adjust(quantity); err != nil {
		return apperrors.NewUnexpected("failed to stage destination stock", err)
	}

	movement := domain.NewStockMovement(productID, fromLocationID, toLocationID, quantity, actorID)
	outTxn := domain.NewStockTransaction(productID, fromLocationID, domain.TransactionTransfer, -quantity, notes, actorID)
	inTxn := domain.NewStockTransaction(productID, toLocationID, domain.TransactionTransfer, quantity, notes, actorID)

	commit := storage.StockCommit{
		Records:      []domain.InventoryRecord{source, destination},
		Transactions: []domain.StockTransaction{*outTxn, *inTxn},
		Movements:    []domain.StockMovement{*movement},
	}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return err
	}

	s.ledger.Upsert(source)
	s.ledger.Upsert(destination)
	s.publish(ctx, events.StockTransferredEvent{
		ProductID:      productID,
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		Quantity:       quantity,
		OccurredAt:     movement.CreatedAt,
	})

	s.logger.Info("Stock transferred",
		zap.String("product_id", productID.String()),
		zap.String("from", fromLocationID.String()),
		zap.String("to", toLocationID.String()),
		zap.Int("quantity", quantity),
	)
	return nil
}

// Reserve places a soft hold against available stock
func (s *Service) Reserve(ctx context.Context, inventoryID uuid.UUID, quantity int) (domain.InventoryRecord, error) {
	if quantity <= 0 {
		return domain.InventoryRecord{}, apperrors.NewInvalidInput("reserve quantity must be positive",
			fmt.Sprintf("Quantity: %d", quantity))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.ledger.Get(inventoryID)
	if !ok {
		return domain.InventoryRecord{}, apperrors.NewNotFound("inventory record", inventoryID.String())
	}

	available := record.AvailableStock()
	if err := record.Reserve(quantity); err != nil {
		return domain.InventoryRecord{}, apperrors.NewInsufficientStock(available, quantity)
	}

	// Reservations are soft state carried on the inventory row; the
	// transaction log records stock-level changes only.
	commit := storage.StockCommit{Records: []domain.InventoryRecord{record}}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return domain.InventoryRecord{}, err
	}

	s.ledger.Upsert(record)
	s.publish(ctx, events.StockReservedEvent{
		InventoryID: record.ID,
		Quantity:    quantity,
		Reserved:    record.ReservedStock,
		Available:   record.AvailableStock(),
		OccurredAt:  record.LastUpdated,
	})
	return record, nil
}

// Release removes a previously placed hold
func (s *Service) Release(ctx context.Context, inventoryID uuid.UUID, quantity int) (domain.InventoryRecord, error) {
	if quantity <= 0 {
		return domain.InventoryRecord{}, apperrors.NewInvalidInput("release quantity must be positive",
			fmt.Sprintf("Quantity: %d", quantity))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.ledger.Get(inventoryID)
	if !ok {
		return domain.InventoryRecord{}, apperrors.NewNotFound("inventory record", inventoryID.String())
	}

	reserved := record.ReservedStock
	if err := record.Release(quantity); err != nil {
		return domain.InventoryRecord{}, apperrors.NewInvalidRelease(reserved, quantity)
	}

	commit := storage.StockCommit{Records: []domain.InventoryRecord{record}}
	if err := s.sync.WriteThrough(ctx, commit); err != nil {
		return domain.InventoryRecord{}, err
	}

	s.ledger.Upsert(record)
	s.publish(ctx, events.StockReleasedEvent{
		InventoryID: record.ID,
		Quantity:    quantity,
		Reserved:    record.ReservedStock,
		Available:   record.AvailableStock(),
		OccurredAt:  record.LastUpdated,
	})
	return record, nil
}

// Lookup returns the ledger record for a (product, location) pair. Read
// path for collaborators that only know the pair, not the inventory id.
func (s *Service) Lookup(productID, locationID uuid.UUID) (domain.InventoryRecord, bool) {
	return s.ledger.GetByProductAndLocation(productID, locationID)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	}
}
