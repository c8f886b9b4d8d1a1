package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a stock transaction
type TransactionType string

const (
	TransactionAdjustment TransactionType = "adjustment"
	TransactionSale       TransactionType = "sale"
	TransactionPurchase   TransactionType = "purchase"
	TransactionReturn     TransactionType = "return"
	TransactionTransfer   TransactionType = "transfer"
)

// StockTransaction is an immutable audit entry documenting one
// stock-affecting event. Entries are append-only: never mutated or deleted.
type StockTransaction struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	LocationID    uuid.UUID
	Type          TransactionType
	Quantity      int // signed delta applied to current stock
	UnitCostCents *int64
	Reference     *uuid.UUID // e.g., order id
	Notes         string
	ActorID       string
	CreatedAt     time.Time
}

// NewStockTransaction creates an audit entry for a stock mutation
func NewStockTransaction(productID, locationID uuid.UUID, txType TransactionType, quantity int, notes, actorID string) *StockTransaction {
	return &StockTransaction{
		ID:         uuid.New(),
		ProductID:  productID,
		LocationID: locationID,
		Type:       txType,
		Quantity:   quantity,
		Notes:      notes,
		ActorID:    actorID,
		CreatedAt:  time.Now().UTC(),
	}
}

// WithReference attaches an originating entity id (usually an order)
func (t *StockTransaction) WithReference(id uuid.UUID) *StockTransaction {
	ref := id
	t.Reference = &ref
	return t
}

// StockMovement is the audit entry for a transfer between two locations
type StockMovement struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Quantity       int
	ActorID        string
	CreatedAt      time.Time
}

// NewStockMovement creates an audit entry for a transfer
func NewStockMovement(productID, fromLocationID, toLocationID uuid.UUID, quantity int, actorID string) *StockMovement {
	return &StockMovement{
		ID:             uuid.New(),
		ProductID:      productID,
		FromLocationID: fromLocationID,
		ToLocationID:   toLocationID,
		Quantity:       quantity,
		ActorID:        actorID,
		CreatedAt:      time.Now().UTC(),
	}
}
