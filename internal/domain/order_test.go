package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func saleOrder() *Order {
	order := NewOrder(OrderTypeSale, uuid.New(), "tester")
	customerID := uuid.New()
	order.CustomerID = &customerID
	order.Items = []OrderItem{
		{ID: uuid.New(), OrderID: order.ID, ProductID: uuid.New(), Quantity: 2, UnitPriceCents: 500, TotalPriceCents: 1000},
	}
	return order
}

func TestNewOrder_StartsInDraft(t *testing.T) {
	order := NewOrder(OrderTypeSale, uuid.New(), "tester")

	assert.Equal(t, OrderStatusDraft, order.Status)
	assert.Equal(t, "tester", order.CreatedBy)
	assert.False(t, order.OrderDate.IsZero())
}

func TestOrderValidate_Success(t *testing.T) {
	assert.NoError(t, saleOrder().Validate())
}

func TestOrderValidate_Error_SaleWithoutCustomer(t *testing.T) {
	order := saleOrder()
	order.CustomerID = nil

	assert.Equal(t, ErrOrderPartyMismatch, order.Validate())
}

func TestOrderValidate_Error_SaleWithSupplier(t *testing.T) {
	order := saleOrder()
	supplierID := uuid.New()
	order.SupplierID = &supplierID

	assert.Equal(t, ErrOrderPartyMismatch, order.Validate())
}

func TestOrderValidate_Error_PurchaseWithCustomer(t *testing.T) {
	order := NewOrder(OrderTypePurchase, uuid.New(), "tester")
	customerID := uuid.New()
	order.CustomerID = &customerID
	order.Items = saleOrder().Items

	assert.Equal(t, ErrOrderPartyMismatch, order.Validate())
}

func TestOrderValidate_Error_NoItems(t *testing.T) {
	order := saleOrder()
	order.Items = nil

	assert.Equal(t, ErrOrderWithoutItems, order.Validate())
}

func TestOrderItemValidate_Error_ZeroQuantity(t *testing.T) {
	item := OrderItem{Quantity: 0, UnitPriceCents: 100, TotalPriceCents: 0}

	assert.Equal(t, ErrInvalidOrderItem, item.Validate())
}

func TestOrderItemValidate_Error_NegativePrice(t *testing.T) {
	item := OrderItem{Quantity: 1, UnitPriceCents: -1, TotalPriceCents: -1}

	assert.Equal(t, ErrInvalidOrderItem, item.Validate())
}

// The stored total is checked, not derived, so rounding drift in persisted
// rows is detected
func TestOrderItemValidate_Error_PriceMismatch(t *testing.T) {
	item := OrderItem{Quantity: 3, UnitPriceCents: 100, TotalPriceCents: 301}

	assert.Equal(t, ErrOrderItemPriceMismatch, item.Validate())
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, OrderStatusCompleted.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusDraft.Terminal())
	assert.False(t, OrderStatusActive.Terminal())
	assert.False(t, OrderStatusFulfilled.Terminal())
}
