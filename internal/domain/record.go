package domain

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord represents the stock held for one product at one location.
// A (ProductID, LocationID) pair is unique across the ledger.
type InventoryRecord struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	LocationID    uuid.UUID
	CurrentStock  int
	ReservedStock int
	LastUpdated   time.Time
	Version       int // For optimistic locking
}

// NewInventoryRecord creates a new inventory record for a (product, location) pair
func NewInventoryRecord(productID, locationID uuid.UUID, initialStock int) *InventoryRecord {
	return &InventoryRecord{
		ID:            uuid.New(),
		ProductID:     productID,
		LocationID:    locationID,
		CurrentStock:  initialStock,
		ReservedStock: 0,
		LastUpdated:   time.Now().UTC(),
		Version:       1,
	}
}

// AvailableStock returns the quantity eligible for new reservations or sale
func (r *InventoryRecord) AvailableStock() int {
	return r.CurrentStock - r.ReservedStock
}

// InStock reports whether any stock is available
func (r *InventoryRecord) InStock() bool {
	return r.AvailableStock() > 0
}

// Adjust changes current stock by delta. A negative delta may not consume
// more than the available stock: current stock never drops below the
// reserved quantity, and never below zero.
func (r *InventoryRecord) Adjust(delta int) error {
	if delta < 0 && -delta > r.AvailableStock() {
		return ErrInsufficientStock
	}
	r.CurrentStock += delta
	r.touch()
	return nil
}

// Reserve places a soft hold against available stock
func (r *InventoryRecord) Reserve(quantity int) error {
	if r.AvailableStock() < quantity {
		return ErrInsufficientStock
	}
	r.ReservedStock += quantity
	r.touch()
	return nil
}

// Release removes a previously placed hold
func (r *InventoryRecord) Release(quantity int) error {
	if r.ReservedStock < quantity {
		return ErrInvalidReleaseQuantity
	}
	r.ReservedStock -= quantity
	r.touch()
	return nil
}

// Fulfill converts a reservation into an actual stock decrease
func (r *InventoryRecord) Fulfill(quantity int) error {
	if r.ReservedStock < quantity {
		return ErrInvalidReleaseQuantity
	}
	r.ReservedStock -= quantity
	r.CurrentStock -= quantity
	r.touch()
	return nil
}

func (r *InventoryRecord) touch() {
	r.LastUpdated = time.Now().UTC()
	r.Version++
}

// Domain errors
var (
	ErrInsufficientStock      = &DomainError{Message: "insufficient stock available"}
	ErrInvalidReleaseQuantity = &DomainError{Message: "invalid release quantity"}
	ErrRecordNotFound         = &DomainError{Message: "inventory record not found"}
)

// DomainError represents a domain-level error
type DomainError struct {
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
