package handlers

import (
	"net/http"
	"strconv"

	"ledger-service/internal/ledger"
	"ledger-service/internal/operations"
	"ledger-service/pkg/errors"
	"ledger-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryHandler exposes the ledger's query operations and the sanctioned
// stock mutators
type InventoryHandler struct {
	logger *zap.Logger
	ledger *ledger.Ledger
	ops    *operations.Service

	lowStockThreshold int
}

// NewInventoryHandler creates the inventory handler
func NewInventoryHandler(logger *zap.Logger, ldg *ledger.Ledger, ops *operations.Service, lowStockThreshold int) *InventoryHandler {
	return &InventoryHandler{
		logger:            logger,
		ledger:            ldg,
		ops:               ops,
		lowStockThreshold: lowStockThreshold,
	}
}

func respondError(c *gin.Context, err error) {
	if stdErr, ok := err.(*errors.StandardError); ok {
		c.JSON(stdErr.HTTPStatus(), stdErr)
		return
	}
	c.JSON(http.StatusInternalServerError, errors.NewUnexpected("internal server error", err))
}

func actor(c *gin.Context) string {
	if userID := c.GetString(middleware.ActorContextKey); userID != "" {
		return userID
	}
	return "system"
}

// GetRecord handles GET /api/v1/inventory/records/:id
// @Summary  Get an inventory record by id
// @Tags     inventory
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Inventory record ID (UUID)"
// @Success  200  {object}  RecordResponse
// @Failure  404  {object}  errors.StandardError
// @Router   /inventory/records/{id} [get]
func (h *InventoryHandler) GetRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid inventory id", c.Param("id")))
		return
	}

	record, ok := h.ledger.Get(id)
	if !ok {
		respondError(c, errors.NewNotFound("inventory record", id.String()))
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(record))
}

// GetByProduct handles GET /api/v1/inventory/products/:id
// @Summary  List a product's records across all locations
// @Tags     inventory
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Product ID (UUID)"
// @Success  200  {array}  RecordResponse
// @Router   /inventory/products/{id} [get]
func (h *InventoryHandler) GetByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid product id", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, toRecordResponses(h.ledger.GetByProduct(productID)))
}

// GetProductSummary handles GET /api/v1/inventory/products/:id/summary
// @Summary  Aggregate a product's stock across all locations
// @Tags     inventory
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Product ID (UUID)"
// @Success  200  {object}  ProductSummaryResponse
// @Router   /inventory/products/{id}/summary [get]
func (h *InventoryHandler) GetProductSummary(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid product id", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, ProductSummaryResponse{
		ProductID:      productID,
		TotalStock:     h.ledger.TotalStockForProduct(productID),
		AvailableStock: h.ledger.AvailableStockForProduct(productID),
		ReservedStock:  h.ledger.ReservedStockForProduct(productID),
	})
}

// GetByLocation handles GET /api/v1/inventory/locations/:id
// @Summary  List the records held at a location
// @Tags     inventory
// @Produce  json
// @Security BearerAuth
// @Param    id  path  string  true  "Location ID (UUID)"
// @Success  200  {array}  RecordResponse
// @Router   /inventory/locations/{id} [get]
func (h *InventoryHandler) GetByLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid location id", c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, toRecordResponses(h.ledger.GetByLocation(locationID)))
}

// GetLowStock handles GET /api/v1/inventory/low-stock
// @Summary  List records whose available stock is at or below the threshold
// @Tags     inventory
// @Produce  json
// @Security BearerAuth
// @Param    threshold  query  int  false  "Available stock threshold"
// @Success  200  {array}  RecordResponse
// @Router   /inventory/low-stock [get]
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	threshold := h.lowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, errors.NewInvalidInput("invalid threshold", raw))
			return
		}
		threshold = parsed
	}
	c.JSON(http.StatusOK, toRecordResponses(h.ledger.LowStock(threshold)))
}

// GetOutOfStock handles GET /api/v1/inventory/out-of-stock
// @Summary  List records with no available stock
// @Tags     inventory
// @Produce  json
// @Security BearerAuth
// @Success  200  {array}  RecordResponse
// @Router   /inventory/out-of-stock [get]
func (h *InventoryHandler) GetOutOfStock(c *gin.Context) {
	c.JSON(http.StatusOK, toRecordResponses(h.ledger.OutOfStock()))
}

// CreateRecord handles POST /api/v1/inventory/records
// @Summary  Register stock for a new (product, location) pair
// @Tags     inventory
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    request  body  CreateInventoryRequest  true  "Inventory registration"
// @Success  201  {object}  RecordResponse
// @Failure  409  {object}  errors.StandardError  "Pair already registered"
// @Router   /inventory/records [post]
func (h *InventoryHandler) CreateRecord(c *gin.Context) {
	var req CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInput("invalid request", err.Error()))
		return
	}

	record, err := h.ops.CreateInventory(c.Request.Context(), req.ProductID, req.LocationID, req.InitialStock, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecordResponse(record))
}

// AdjustStock handles POST /api/v1/inventory/records/:id/adjust
// @Summary  Adjust current stock by a signed delta
// @Description  Negative deltas may not consume more than the available stock.
// @Tags     inventory
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id       path  string              true  "Inventory record ID (UUID)"
// @Param    request  body  AdjustStockRequest  true  "Adjustment"
// @Success  200  {object}  RecordResponse
// @Failure  409  {object}  errors.StandardError  "Insufficient available stock"
// @Router   /inventory/records/{id}/adjust [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid inventory id", c.Param("id")))
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInput("invalid request", err.Error()))
		return
	}

	record, opErr := h.ops.Adjust(c.Request.Context(), id, req.Delta, req.Notes, actor(c))
	if opErr != nil {
		respondError(c, opErr)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(record))
}

// ReserveStock handles POST /api/v1/inventory/records/:id/reserve
// @Summary  Reserve available stock
// @Tags     inventory
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id       path  string               true  "Inventory record ID (UUID)"
// @Param    request  body  ReserveStockRequest  true  "Reservation"
// @Success  200  {object}  RecordResponse
// @Failure  409  {object}  errors.StandardError  "Insufficient available stock"
// @Router   /inventory/records/{id}/reserve [post]
func (h *InventoryHandler) ReserveStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid inventory id", c.Param("id")))
		return
	}

	var req ReserveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInput("invalid request", err.Error()))
		return
	}

	record, opErr := h.ops.Reserve(c.Request.Context(), id, req.Quantity)
	if opErr != nil {
		respondError(c, opErr)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(record))
}

// ReleaseStock handles POST /api/v1/inventory/records/:id/release
// @Summary  Release reserved stock
// @Tags     inventory
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id       path  string               true  "Inventory record ID (UUID)"
// @Param    request  body  ReleaseStockRequest  true  "Release"
// @Success  200  {object}  RecordResponse
// @Failure  409  {object}  errors.StandardError  "Release exceeds reserved stock"
// @Router   /inventory/records/{id}/release [post]
func (h *InventoryHandler) ReleaseStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, errors.NewInvalidInput("invalid inventory id", c.Param("id")))
		return
	}

	var req ReleaseStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInput("invalid request", err.Error()))
		return
	}

	record, opErr := h.ops.Release(c.Request.Context(), id, req.Quantity)
	if opErr != nil {
		respondError(c, opErr)
		return
	}
	c.JSON(http.StatusOK, toRecordResponse(record))
}

// TransferStock handles POST /api/v1/inventory/transfers
// @Summary  Transfer stock between two locations
// @Description  Both sides apply or neither does.
// @Tags     inventory
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    request  body  TransferStockRequest  true  "Transfer"
// @Success  200  {object}  map[string]string
// @Failure  409  {object}  errors.StandardError  "Insufficient available stock at source"
// @Router   /inventory/transfers [post]
func (h *InventoryHandler) TransferStock(c *gin.Context) {
	var req TransferStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.NewInvalidInput("invalid request", err.Error()))
		return
	}

	err := h.ops.Transfer(c.Request.Context(), req.ProductID, req.FromLocationID, req.ToLocationID,
		req.Quantity, req.Notes, actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transfer completed"})
}
