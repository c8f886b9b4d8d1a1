package handlers

import (
	"context"
	"net/http"
	"time"

	"ledger-service/internal/persistence"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RefreshHandler triggers out-of-band reconciliation of the ledger with the
// backing store
type RefreshHandler struct {
	logger *zap.Logger
	sync   *persistence.Sync
}

// NewRefreshHandler creates the refresh handler
func NewRefreshHandler(logger *zap.Logger, sync *persistence.Sync) *RefreshHandler {
	return &RefreshHandler{
		logger: logger,
		sync:   sync,
	}
}

// Refresh handles POST /api/v1/refresh
// @Summary  Reload the ledger from storage asynchronously
// @Description  Fire-and-forget. Callers relying on immediate consistency must poll the ledger afterwards.
// @Tags     system
// @Produce  json
// @Security BearerAuth
// @Success  202  {object}  map[string]string
// @Router   /refresh [post]
func (h *RefreshHandler) Refresh(c *gin.Context) {
	// Detached from the request context so the reload survives the response
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.sync.Reload(ctx); err != nil {
			h.logger.Error("Background reload failed", zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": "reload started"})
}
