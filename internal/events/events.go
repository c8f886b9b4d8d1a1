package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher defines the interface for publishing domain events
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Event is implemented by every domain event. EventType names the event,
// Key supplies the partition key, Stream routes it to a topic.
type Event interface {
	EventType() string
	Key() string
	Stream() string
}

// Event streams
const (
	StreamStock  = "stock"
	StreamOrders = "orders"
)

type InventoryCreatedEvent struct {
	InventoryID  uuid.UUID `json:"inventory_id"`
	ProductID    uuid.UUID `json:"product_id"`
	LocationID   uuid.UUID `json:"location_id"`
	InitialStock int       `json:"initial_stock"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func (e InventoryCreatedEvent) EventType() string { return "InventoryCreated" }
func (e InventoryCreatedEvent) Key() string       { return e.InventoryID.String() }
func (e InventoryCreatedEvent) Stream() string    { return StreamStock }

type StockAdjustedEvent struct {
	InventoryID uuid.UUID `json:"inventory_id"`
	ProductID   uuid.UUID `json:"product_id"`
	LocationID  uuid.UUID `json:"location_id"`
	Delta       int       `json:"delta"`
	NewTotal    int       `json:"new_total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e StockAdjustedEvent) EventType() string { return "StockAdjusted" }
func (e StockAdjustedEvent) Key() string       { return e.InventoryID.String() }
func (e StockAdjustedEvent) Stream() string    { return StreamStock }

type StockTransferredEvent struct {
	ProductID      uuid.UUID `json:"product_id"`
	FromLocationID uuid.UUID `json:"from_location_id"`
	ToLocationID   uuid.UUID `json:"to_location_id"`
	Quantity       int       `json:"quantity"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func (e StockTransferredEvent) EventType() string { return "StockTransferred" }
func (e StockTransferredEvent) Key() string       { return e.ProductID.String() }
func (e StockTransferredEvent) Stream() string    { return StreamStock }

type StockReservedEvent struct {
	InventoryID uuid.UUID `json:"inventory_id"`
	Quantity    int       `json:"quantity"`
	Reserved    int       `json:"reserved"`
	Available   int       `json:"available"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e StockReservedEvent) EventType() string { return "StockReserved" }
func (e StockReservedEvent) Key() string       { return e.InventoryID.String() }
func (e StockReservedEvent) Stream() string    { return StreamStock }

type StockReleasedEvent struct {
	InventoryID uuid.UUID `json:"inventory_id"`
	Quantity    int       `json:"quantity"`
	Reserved    int       `json:"reserved"`
	Available   int       `json:"available"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e StockReleasedEvent) EventType() string { return "StockReleased" }
func (e StockReleasedEvent) Key() string       { return e.InventoryID.String() }
func (e StockReleasedEvent) Stream() string    { return StreamStock }

type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e OrderStatusChangedEvent) EventType() string { return "OrderStatusChanged" }
func (e OrderStatusChangedEvent) Key() string       { return e.OrderID.String() }
func (e OrderStatusChangedEvent) Stream() string    { return StreamOrders }

// InMemoryPublisher records events instead of sending them. Used as the
// offline fallback and in tests.
type InMemoryPublisher struct {
	mu     sync.Mutex
	logger *zap.Logger
	events []Event
}

func NewInMemoryPublisher(logger *zap.Logger) *InMemoryPublisher {
	return &InMemoryPublisher{
		logger: logger,
		events: make([]Event, 0),
	}
}

func (p *InMemoryPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.logger.Debug("Event published (in-memory)", zap.String("event_type", event.EventType()))
	return nil
}

func (p *InMemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far
func (p *InMemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
