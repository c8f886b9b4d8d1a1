package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ledger-service/internal/auth"
	"ledger-service/internal/config"
	"ledger-service/internal/events"
	"ledger-service/internal/handlers"
	"ledger-service/internal/ledger"
	"ledger-service/internal/operations"
	"ledger-service/internal/orders"
	"ledger-service/internal/persistence"
	"ledger-service/internal/storage"
	"ledger-service/pkg/logger"
	"ledger-service/pkg/middleware"

	_ "ledger-service/docs" // Import docs for Swagger

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Ledger Service API
// @version         1.0
// @description     Stock ledger and order-fulfillment coordination service.

// @host      localhost:8082
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	appLogger := logger.New(cfg.Environment)
	defer appLogger.Sync()

	appLogger.Info("Starting ledger service",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("sqlite_path", cfg.SQLitePath),
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Durable store
	store, err := storage.NewSQLiteStore(cfg.SQLitePath, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	// Event publisher, falling back to in-memory when Kafka is unreachable
	var publisher events.Publisher
	publisher, err = events.NewKafkaPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Warn("Failed to initialize Kafka publisher, using in-memory fallback", zap.Error(err))
		publisher = events.NewInMemoryPublisher(appLogger)
	}
	defer publisher.Close()

	// Ledger core
	stockLedger := ledger.New()
	writeTimeout := time.Duration(cfg.WriteTimeoutMs) * time.Millisecond
	sync := persistence.NewSync(store, stockLedger, writeTimeout, appLogger)
	ops := operations.NewService(stockLedger, sync, publisher, appLogger)
	stateMachine := orders.NewStateMachine(ops, store, publisher, appLogger)

	// Initial load of the in-memory ledger
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sync.Reload(loadCtx); err != nil {
		cancelLoad()
		appLogger.Fatal("Failed to load inventory snapshot", zap.Error(err))
	}
	cancelLoad()

	// Router and middleware chain
	router := gin.New()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(middleware.RequestIDMiddleware(appLogger))
	router.Use(middleware.ErrorHandler(appLogger))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, appLogger)
	authHandler := auth.NewAuthHandler(jwtManager, appLogger)
	inventoryHandler := handlers.NewInventoryHandler(appLogger, stockLedger, ops, cfg.LowStockThreshold)
	orderHandler := handlers.NewOrderHandler(appLogger, stateMachine)
	refreshHandler := handlers.NewRefreshHandler(appLogger, sync)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
		}

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager, appLogger))
		{
			inventory := protected.Group("/inventory")
			{
				inventory.GET("/records/:id", inventoryHandler.GetRecord)
				inventory.GET("/products/:id", inventoryHandler.GetByProduct)
				inventory.GET("/products/:id/summary", inventoryHandler.GetProductSummary)
				inventory.GET("/locations/:id", inventoryHandler.GetByLocation)
				inventory.GET("/low-stock", inventoryHandler.GetLowStock)
				inventory.GET("/out-of-stock", inventoryHandler.GetOutOfStock)
				inventory.POST("/records", inventoryHandler.CreateRecord)
				inventory.POST("/records/:id/adjust", inventoryHandler.AdjustStock)
				inventory.POST("/records/:id/reserve", inventoryHandler.ReserveStock)
				inventory.POST("/records/:id/release", inventoryHandler.ReleaseStock)
				inventory.POST("/transfers", inventoryHandler.TransferStock)
			}

			orderGroup := protected.Group("/orders")
			{
				orderGroup.POST("", orderHandler.CreateOrder)
				orderGroup.GET("/:id", orderHandler.GetOrder)
				orderGroup.POST("/:id/activate", orderHandler.Activate)
				orderGroup.POST("/:id/fulfill", orderHandler.Fulfill)
				orderGroup.POST("/:id/complete", orderHandler.Complete)
				orderGroup.POST("/:id/cancel", orderHandler.Cancel)
				orderGroup.POST("/:id/revert", orderHandler.Revert)
			}

			protected.POST("/refresh", refreshHandler.Refresh)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Listening",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// healthCheck handles GET /api/v1/health
// @Summary  Health check endpoint
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ledger-service",
	})
}
