package handlers

import (
	"time"

	"ledger-service/internal/domain"

	"github.com/google/uuid"
)

// CreateInventoryRequest registers stock for a new (product, location) pair
type CreateInventoryRequest struct {
	ProductID    uuid.UUID `json:"product_id" binding:"required"`
	LocationID   uuid.UUID `json:"location_id" binding:"required"`
	InitialStock int       `json:"initial_stock" binding:"min=0"`
}

// AdjustStockRequest changes current stock by a signed delta
type AdjustStockRequest struct {
	Delta int    `json:"delta" binding:"required"`
	Notes string `json:"notes"`
}

// ReserveStockRequest places a hold against available stock
type ReserveStockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// ReleaseStockRequest removes a previously placed hold
type ReleaseStockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// TransferStockRequest moves stock between two locations
type TransferStockRequest struct {
	ProductID      uuid.UUID `json:"product_id" binding:"required"`
	FromLocationID uuid.UUID `json:"from_location_id" binding:"required"`
	ToLocationID   uuid.UUID `json:"to_location_id" binding:"required"`
	Quantity       int       `json:"quantity" binding:"required"`
	Notes          string    `json:"notes"`
}

// CreateOrderRequest creates an order in Draft status
type CreateOrderRequest struct {
	Type         string             `json:"type" binding:"required,oneof=sale purchase"`
	CustomerID   *uuid.UUID         `json:"customer_id"`
	SupplierID   *uuid.UUID         `json:"supplier_id"`
	LocationID   uuid.UUID          `json:"location_id" binding:"required"`
	DeliveryDate *time.Time         `json:"delivery_date"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemRequest is one line of an order request
type OrderItemRequest struct {
	ProductID       uuid.UUID `json:"product_id" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required,min=1"`
	UnitPriceCents  int64     `json:"unit_price_cents" binding:"min=0"`
	TotalPriceCents int64     `json:"total_price_cents"`
}

// RecordResponse is the wire form of an inventory record
type RecordResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	LocationID     uuid.UUID `json:"location_id"`
	CurrentStock   int       `json:"current_stock"`
	ReservedStock  int       `json:"reserved_stock"`
	AvailableStock int       `json:"available_stock"`
	InStock        bool      `json:"in_stock"`
	LastUpdated    time.Time `json:"last_updated"`
}

func toRecordResponse(r domain.InventoryRecord) RecordResponse {
	return RecordResponse{
		ID:             r.ID,
		ProductID:      r.ProductID,
		LocationID:     r.LocationID,
		CurrentStock:   r.CurrentStock,
		ReservedStock:  r.ReservedStock,
		AvailableStock: r.AvailableStock(),
		InStock:        r.InStock(),
		LastUpdated:    r.LastUpdated,
	}
}

func toRecordResponses(records []domain.InventoryRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRecordResponse(r))
	}
	return out
}

// ProductSummaryResponse aggregates one product across all locations
type ProductSummaryResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	TotalStock     int       `json:"total_stock"`
	AvailableStock int       `json:"available_stock"`
	ReservedStock  int       `json:"reserved_stock"`
}

// OrderResponse is the wire form of an order
type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	Type         string              `json:"type"`
	Status       string              `json:"status"`
	CustomerID   *uuid.UUID          `json:"customer_id,omitempty"`
	SupplierID   *uuid.UUID          `json:"supplier_id,omitempty"`
	LocationID   uuid.UUID           `json:"location_id"`
	OrderDate    time.Time           `json:"order_date"`
	DeliveryDate *time.Time          `json:"delivery_date,omitempty"`
	CreatedBy    string              `json:"created_by"`
	Items        []OrderItemResponse `json:"items"`
}

// OrderItemResponse is one line of an order response
type OrderItemResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	Quantity        int       `json:"quantity"`
	UnitPriceCents  int64     `json:"unit_price_cents"`
	TotalPriceCents int64     `json:"total_price_cents"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: item.TotalPriceCents,
		})
	}
	return OrderResponse{
		ID:           o.ID,
		Type:         string(o.Type),
		Status:       o.Status.String(),
		CustomerID:   o.CustomerID,
		SupplierID:   o.SupplierID,
		LocationID:   o.LocationID,
		OrderDate:    o.OrderDate,
		DeliveryDate: o.DeliveryDate,
		CreatedBy:    o.CreatedBy,
		Items:        items,
	}
}
