package storage

import (
	"context"

	"ledger-service/internal/domain"

	"github.com/google/uuid"
)

// StockCommit bundles the rows of one ledger mutation: the inventory
// records as they must read after the mutation, plus the audit entries
// documenting it. A commit is applied in a single storage transaction so a
// transfer's two sides land together or not at all.
type StockCommit struct {
	Records      []domain.InventoryRecord
	Transactions []domain.StockTransaction
	Movements    []domain.StockMovement
}

// Store defines the durable storage consumed by the ledger core
type Store interface {
	// ReadAllInventory fetches the full current inventory snapshot
	ReadAllInventory(ctx context.Context) ([]domain.InventoryRecord, error)
	// ApplyStockCommit persists one ledger mutation atomically
	ApplyStockCommit(ctx context.Context, commit StockCommit) error
	// SaveOrder inserts an order with its items
	SaveOrder(ctx context.Context, order *domain.Order) error
	// UpdateOrderStatus persists a status transition
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error
	// FindOrder fetches an order with its items
	FindOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}
