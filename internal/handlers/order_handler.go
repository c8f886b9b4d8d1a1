package handlers

import (
	"context"
	"net/http"

	"ledger-service/internal/domain"
	"ledger-service/internal/orders"
	"ledger-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderHandler exposes the order lifecycle transitions
type OrderHandler struct {
	logger *zap.Logger
	orders *orders.StateMachine
}

// NewOrderHandler creates the order handler
func NewOrderHandler(logger *zap.Logger, sm *orders.StateMachine) *OrderHandler {
	return &OrderHandler{
		logger: logger,
		orders: sm,
	}
}

// CreateOrder handles POST /api/v1/orders
// @Summary  Create an order in Draft status
// @Tags     orders
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    request  body  CreateOrderRequest  true  "Order"
// @Success  201  {object}  OrderResponse
// @Failure  400  {object}  errors.StandardError
// @Router   /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInput("invalid request", err.Error()))
		return
	}

	order := domain.NewOrder(domain.OrderType(req.Type), req.LocationID, actor(c))
	order.CustomerID = req.CustomerID
	order.SupplierID = req.SupplierID
	order.DeliveryDate = req.DeliveryDate
	for _, item := range req.Items {
		total := item.TotalPriceCents
		if total == 0 {
			total = item.UnitPriceCents * int64(item.Quantity)
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:              uuid.New(),
			OrderID:         order.ID,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: total,
		})
	}

	if err := h.orders.Create(c.Request.Context(), order); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// GetOrder handles GET /api/v1/orders/:id
// @Summary  Get an order with its items
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Order ID (UUID)"
// @Success  200  {object}  OrderResponse
// @Failure  404  {object}  errors.StandardError
// @Router   /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid order id", c.Param("id")))
		return
	}

	order, opErr := h.orders.Get(c.Request.Context(), id)
	if opErr != nil {
		respondError(c, opErr)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Activate handles POST /api/v1/orders/:id/activate
// @Summary  Activate a Draft order, reserving stock for Sale orders
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Order ID (UUID)"
// @Success  200  {object}  OrderResponse
// @Failure  409  {object}  errors.StandardError  "Insufficient available stock"
// @Router   /orders/{id}/activate [post]
func (h *OrderHandler) Activate(c *gin.Context) {
	h.runTransition(c, h.orders.Activate)
}

// Fulfill handles POST /api/v1/orders/:id/fulfill
// @Summary  Fulfill an Active order, converting reservations into stock changes
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Order ID (UUID)"
// @Success  200  {object}  OrderResponse
// @Router   /orders/{id}/fulfill [post]
func (h *OrderHandler) Fulfill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid order id", c.Param("id")))
		return
	}

	if opErr := h.orders.Fulfill(c.Request.Context(), id, actor(c)); opErr != nil {
		respondError(c, opErr)
		return
	}
	h.respondOrder(c, id)
}

// Complete handles POST /api/v1/orders/:id/complete
// @Summary  Close a Fulfilled order
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Order ID (UUID)"
// @Success  200  {object}  OrderResponse
// @Router   /orders/{id}/complete [post]
func (h *OrderHandler) Complete(c *gin.Context) {
	h.runTransition(c, h.orders.Complete)
}

// Cancel handles POST /api/v1/orders/:id/cancel
// @Summary  Cancel a non-terminal order, releasing outstanding reservations
// @Description  Stock already decremented by a fulfilled Sale order is not reversed; issue a compensating adjustment explicitly.
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Order ID (UUID)"
// @Success  200  {object}  OrderResponse
// @Router   /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.runTransition(c, h.orders.Cancel)
}

// Revert handles POST /api/v1/orders/:id/revert
// @Summary  Revert an Active order to Draft, releasing its reservations
// @Tags     orders
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Order ID (UUID)"
// @Success  200  {object}  OrderResponse
// @Router   /orders/{id}/revert [post]
func (h *OrderHandler) Revert(c *gin.Context) {
	h.runTransition(c, h.orders.Revert)
}

func (h *OrderHandler) runTransition(c *gin.Context, transition func(ctx context.Context, id uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid order id", c.Param("id")))
		return
	}

	if opErr := transition(c.Request.Context(), id); opErr != nil {
		respondError(c, opErr)
		return
	}
	h.respondOrder(c, id)
}

func (h *OrderHandler) respondOrder(c *gin.Context, id uuid.UUID) {
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}
