package orders

import (
	"context"
	"sync"
	"time"

	"ledger-service/internal/domain"
	"ledger-service/internal/events"
	"ledger-service/internal/operations"
	"ledger-service/internal/storage"
	apperrors "ledger-service/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// legalTransitions is the order lifecycle: Draft -> Active -> Fulfilled ->
// Completed, Cancelled reachable from the three non-terminal states, and an
// explicit revert path from Active back to Draft.
var legalTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusDraft:     {domain.OrderStatusActive, domain.OrderStatusCancelled},
	domain.OrderStatusActive:    {domain.OrderStatusFulfilled, domain.OrderStatusDraft, domain.OrderStatusCancelled},
	domain.OrderStatusFulfilled: {domain.OrderStatusCompleted, domain.OrderStatusCancelled},
}

func canTransition(from, to domain.OrderStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StateMachine drives orders through their lifecycle. Each transition
// validates legality from the current status, performs its ledger side
// effects through the operations service, then persists and applies the new
// status. A mid-transition failure leaves the order's status unchanged and
// compensates any ledger mutation already applied in the same attempt.
type StateMachine struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]*domain.Order
	ops       *operations.Service
	store     storage.Store
	publisher events.Publisher
	logger    *zap.Logger
}

// NewStateMachine creates the order subsystem
func NewStateMachine(ops *operations.Service, store storage.Store, publisher events.Publisher, logger *zap.Logger) *StateMachine {
	return &StateMachine{
		orders:    make(map[uuid.UUID]*domain.Order),
		ops:       ops,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Create validates and persists a new order in Draft status
func (m *StateMachine) Create(ctx context.Context, order *domain.Order) error {
	order.Status = domain.OrderStatusDraft
	if err := order.Validate(); err != nil {
		return apperrors.NewInvalidInput("invalid order", err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SaveOrder(ctx, order); err != nil {
		return err
	}
	m.orders[order.ID] = order.Clone()

	m.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("type", string(order.Type)),
		zap.Int("items", len(order.Items)),
	)
	return nil
}

// Get returns an order, falling back to storage on a cache miss
func (m *StateMachine) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	if order, ok := m.orders[orderID]; ok {
		copied := order.Clone()
		m.mu.Unlock()
		return copied, nil
	}
	m.mu.Unlock()

	order, err := m.store.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.orders[orderID] = order
	copied := order.Clone()
	m.mu.Unlock()
	return copied, nil
}

// Activate transitions Draft -> Active. A Sale order reserves stock for
// every line at the order's location; the reservation batch is
// all-or-nothing, so a failing line leaves no reservation behind. Purchase
// orders have no reservation step since they add stock.
func (m *StateMachine) Activate(ctx context.Context, orderID uuid.UUID) error {
	return m.transition(ctx, orderID, domain.OrderStatusActive,
		func(order *domain.Order) error {
			if order.Type != domain.OrderTypeSale {
				return nil
			}
			return m.ops.ReserveForOrder(ctx, lines(order), order.LocationID, order.ID)
		},
		func(order *domain.Order) {
			if order.Type == domain.OrderTypeSale {
				m.compensateRelease(ctx, order)
			}
		})
}

// Fulfill transitions Active -> Fulfilled. A Sale order converts its
// reservations into stock decreases recorded as sale transactions; a
// Purchase order increments stock at the receiving location recorded as
// purchase transactions.
func (m *StateMachine) Fulfill(ctx context.Context, orderID uuid.UUID, actorID string) error {
	return m.transition(ctx, orderID, domain.OrderStatusFulfilled,
		func(order *domain.Order) error {
			if order.Type == domain.OrderTypeSale {
				return m.ops.FulfillSale(ctx, lines(order), order.LocationID, order.ID, actorID)
			}
			return m.ops.ReceivePurchase(ctx, lines(order), order.LocationID, order.ID, actorID)
		},
		func(order *domain.Order) {
			// Compensation on status-persist failure: re-reserve what
			// fulfillment consumed, or back out the received stock.
			if order.Type == domain.OrderTypeSale {
				m.compensateReFulfill(ctx, order, actorID)
			} else {
				m.compensateUnreceive(ctx, order, actorID)
			}
		})
}

// Complete transitions Fulfilled -> Completed. No ledger side effect; marks
// the order's settlement as final. No reversal once reached.
func (m *StateMachine) Complete(ctx context.Context, orderID uuid.UUID) error {
	return m.transition(ctx, orderID, domain.OrderStatusCompleted, nil, nil)
}

// Cancel transitions any non-terminal status to Cancelled. Outstanding
// reservations of an Active Sale order are released. Stock already
// decremented by a Fulfilled Sale order is not reversed here: that requires
// an explicit compensating adjustment by the caller.
func (m *StateMachine) Cancel(ctx context.Context, orderID uuid.UUID) error {
	return m.transition(ctx, orderID, domain.OrderStatusCancelled,
		func(order *domain.Order) error {
			if order.Status == domain.OrderStatusActive && order.Type == domain.OrderTypeSale {
				return m.ops.ReleaseForOrder(ctx, lines(order), order.LocationID, order.ID)
			}
			return nil
		},
		func(order *domain.Order) {
			if order.Status == domain.OrderStatusActive && order.Type == domain.OrderTypeSale {
				m.compensateReReserve(ctx, order)
			}
		})
}

// Revert transitions Active -> Draft, releasing any outstanding
// reservations. Only legal before fulfillment.
func (m *StateMachine) Revert(ctx context.Context, orderID uuid.UUID) error {
	return m.transition(ctx, orderID, domain.OrderStatusDraft,
		func(order *domain.Order) error {
			if order.Type != domain.OrderTypeSale {
				return nil
			}
			return m.ops.ReleaseForOrder(ctx, lines(order), order.LocationID, order.ID)
		},
		func(order *domain.Order) {
			if order.Type == domain.OrderTypeSale {
				m.compensateReReserve(ctx, order)
			}
		})
}

// transition runs one transition attempt: legality check, ledger side
// effect, durable status write, in-memory status write. If the status write
// fails after the side effect applied, undo compensates it so the attempt
// is all-or-nothing.
func (m *StateMachine) transition(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus, sideEffect func(*domain.Order) error, undo func(*domain.Order)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		stored, err := m.store.FindOrder(ctx, orderID)
		if err != nil {
			return err
		}
		m.orders[orderID] = stored
		order = stored
	}

	from := order.Status
	if !canTransition(from, to) {
		return apperrors.NewIllegalTransition(from.String(), to.String())
	}

	if sideEffect != nil {
		if err := sideEffect(order); err != nil {
			return err
		}
	}

	if err := m.store.UpdateOrderStatus(ctx, orderID, to); err != nil {
		if undo != nil {
			undo(order)
		}
		return err
	}

	order.Status = to
	order.Version++

	m.publishStatus(ctx, orderID, from, to)
	m.logger.Info("Order transitioned",
		zap.String("order_id", orderID.String()),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	return nil
}

func (m *StateMachine) publishStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus) {
	event := events.OrderStatusChangedEvent{
		OrderID:    orderID,
		From:       from.String(),
		To:         to.String(),
		OccurredAt: time.Now().UTC(),
	}
	if err := m.publisher.Publish(ctx, event); err != nil {
		m.logger.Warn("Failed to publish order event",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}
}

// lines extracts the (productID, quantity) tuples the ledger consumes
func lines(order *domain.Order) []operations.OrderLine {
	out := make([]operations.OrderLine, 0, len(order.Items))
	for i := range order.Items {
		out = append(out, operations.OrderLine{
			ProductID: order.Items[i].ProductID,
			Quantity:  order.Items[i].Quantity,
		})
	}
	return out
}

// Compensations run when the durable status write fails after the ledger
// side effect already applied. They restore the pre-transition ledger
// state; a compensation failure is logged and left to reconciliation via
// reload.

func (m *StateMachine) compensateRelease(ctx context.Context, order *domain.Order) {
	if err := m.ops.ReleaseForOrder(ctx, lines(order), order.LocationID, order.ID); err != nil {
		m.logger.Error("Failed to release reservations during rollback",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

func (m *StateMachine) compensateReReserve(ctx context.Context, order *domain.Order) {
	if err := m.ops.ReserveForOrder(ctx, lines(order), order.LocationID, order.ID); err != nil {
		m.logger.Error("Failed to restore reservations during rollback",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

func (m *StateMachine) compensateReFulfill(ctx context.Context, order *domain.Order, actorID string) {
	for _, line := range lines(order) {
		record, ok := m.ops.Lookup(line.ProductID, order.LocationID)
		if !ok {
			continue
		}
		if _, err := m.ops.Adjust(ctx, record.ID, line.Quantity, "fulfillment rollback", actorID); err != nil {
			m.logger.Error("Failed to restore stock during rollback",
				zap.String("order_id", order.ID.String()), zap.Error(err))
			continue
		}
		if _, err := m.ops.Reserve(ctx, record.ID, line.Quantity); err != nil {
			m.logger.Error("Failed to restore reservation during rollback",
				zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}
}

func (m *StateMachine) compensateUnreceive(ctx context.Context, order *domain.Order, actorID string) {
	for _, line := range lines(order) {
		record, ok := m.ops.Lookup(line.ProductID, order.LocationID)
		if !ok {
			continue
		}
		if _, err := m.ops.Adjust(ctx, record.ID, -line.Quantity, "receipt rollback", actorID); err != nil {
			m.logger.Error("Failed to back out received stock during rollback",
				zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}
}
