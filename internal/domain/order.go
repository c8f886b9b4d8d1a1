package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderType distinguishes outgoing sales from incoming purchases
type OrderType string

const (
	OrderTypeSale     OrderType = "sale"
	OrderTypePurchase OrderType = "purchase"
)

// OrderStatus represents the status of an order in its lifecycle.
type OrderStatus string

const (
	// OrderStatusDraft indicates the order has been created but not yet activated.
	OrderStatusDraft OrderStatus = "draft"
	// OrderStatusActive indicates stock has been reserved for the order.
	OrderStatusActive OrderStatus = "active"
	// OrderStatusFulfilled indicates stock levels have been adjusted.
	OrderStatusFulfilled OrderStatus = "fulfilled"
	// OrderStatusCompleted indicates the order is closed. Terminal.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled indicates the order was cancelled. Terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// String returns the string representation of the status.
func (s OrderStatus) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are legal from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderItem is one line of an order
type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductID       uuid.UUID
	Quantity        int
	UnitPriceCents  int64
	TotalPriceCents int64
}

// Validate checks the line against its pricing rules. The total is stored,
// not derived, so persisted rounding discrepancies are detectable here.
func (i *OrderItem) Validate() error {
	if i.Quantity <= 0 {
		return ErrInvalidOrderItem
	}
	if i.UnitPriceCents < 0 {
		return ErrInvalidOrderItem
	}
	if i.TotalPriceCents != i.UnitPriceCents*int64(i.Quantity) {
		return ErrOrderItemPriceMismatch
	}
	return nil
}

// Order is a sale or purchase moving through the fulfillment lifecycle.
// The ledger never sees an Order; fulfillment hands it (productID, quantity)
// tuples only.
type Order struct {
	ID           uuid.UUID
	Type         OrderType
	Status       OrderStatus
	CustomerID   *uuid.UUID // set iff Type is sale
	SupplierID   *uuid.UUID // set iff Type is purchase
	LocationID   uuid.UUID  // fulfillment or receiving location
	OrderDate    time.Time
	DeliveryDate *time.Time
	CreatedBy    string
	Items        []OrderItem
	Version      int
}

// Clone returns a copy that shares no mutable state with the receiver
func (o *Order) Clone() *Order {
	copied := *o
	if o.CustomerID != nil {
		id := *o.CustomerID
		copied.CustomerID = &id
	}
	if o.SupplierID != nil {
		id := *o.SupplierID
		copied.SupplierID = &id
	}
	if o.DeliveryDate != nil {
		t := *o.DeliveryDate
		copied.DeliveryDate = &t
	}
	if o.Items != nil {
		copied.Items = make([]OrderItem, len(o.Items))
		copy(copied.Items, o.Items)
	}
	return &copied
}

// NewOrder creates an order in Draft status
func NewOrder(orderType OrderType, locationID uuid.UUID, createdBy string) *Order {
	return &Order{
		ID:         uuid.New(),
		Type:       orderType,
		Status:     OrderStatusDraft,
		LocationID: locationID,
		OrderDate:  time.Now().UTC(),
		CreatedBy:  createdBy,
		Version:    1,
	}
}

// Validate checks the party/type exclusivity rule and every line item
func (o *Order) Validate() error {
	switch o.Type {
	case OrderTypeSale:
		if o.CustomerID == nil || o.SupplierID != nil {
			return ErrOrderPartyMismatch
		}
	case OrderTypePurchase:
		if o.SupplierID == nil || o.CustomerID != nil {
			return ErrOrderPartyMismatch
		}
	default:
		return ErrInvalidOrderType
	}
	if len(o.Items) == 0 {
		return ErrOrderWithoutItems
	}
	for i := range o.Items {
		if err := o.Items[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Order domain errors
var (
	ErrInvalidOrderType       = &DomainError{Message: "invalid order type"}
	ErrOrderPartyMismatch     = &DomainError{Message: "order party does not match order type"}
	ErrOrderWithoutItems      = &DomainError{Message: "order has no items"}
	ErrInvalidOrderItem       = &DomainError{Message: "invalid order item"}
	ErrOrderItemPriceMismatch = &DomainError{Message: "order item total does not match unit price times quantity"}
	ErrOrderNotFound          = &DomainError{Message: "order not found"}
)
