package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/time/rate"

	"liveshop-service/internal/catalog"
	"liveshop-service/internal/config"
	"liveshop-service/internal/events"
	"liveshop-service/internal/handlers"
	"liveshop-service/internal/middleware"
	"liveshop-service/internal/repository"
	"liveshop-service/internal/services"
	"liveshop-service/internal/subscribers"
	"liveshop-service/internal/tracing"
)

// @title LiveShop Service API
// @version 1.0.0
// @description Product catalog, variant generation, purchase orders and live-session order capture with multi-tenant support

// @contact.name LiveShop API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8093
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	productsRepo := repository.NewProductsRepository(db, redisClient)
	purchaseOrdersRepo := repository.NewPurchaseOrdersRepository(db)
	liveSessionsRepo := repository.NewLiveSessionsRepository(db)
	attributesRepo := repository.NewAttributesRepository(db)

	// Load the attribute catalog used by variant generation
	cat, err := attributesRepo.LoadCatalog()
	if err != nil {
		log.Printf("WARNING: Failed to load attribute catalog: %v (using built-in defaults)", err)
		cat = catalog.Default()
	} else {
		log.Println("✓ Attribute catalog loaded")
	}

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if os.Getenv("NATS_URL") != "" {
		eventsPublisher, err = events.NewPublisher(logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize Prometheus metrics
	metrics := middleware.InitMetrics("tesseract", "liveshop_service")
	log.Println("✓ Prometheus metrics initialized")

	// Initialize services
	variantService := services.NewVariantService(
		cat, productsRepo, purchaseOrdersRepo, eventsPublisher,
		cfg.MaxVariantsPerGeneration, logger,
	)
	liveOrderService := services.NewLiveOrderService(
		liveSessionsRepo, productsRepo, eventsPublisher,
		func(int) { metrics.IndexCorrectionObserved() }, logger,
	)
	purchaseOrderService := services.NewPurchaseOrderService(
		cat, purchaseOrdersRepo, productsRepo, eventsPublisher, logger,
	)

	// Root context cancelled on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the JetStream consumer that settles order indexes against the
	// authoritative order system, only when NATS is configured.
	var liveOrderSubscriber *subscribers.LiveOrderSubscriber
	if os.Getenv("NATS_URL") != "" {
		liveOrderSubscriber, err = subscribers.NewLiveOrderSubscriber(liveOrderService, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize live order subscriber: %v (index settlement via HTTP only)", err)
		} else if err := liveOrderSubscriber.Start(ctx); err != nil {
			log.Printf("WARNING: Failed to start live order subscriber: %v (index settlement via HTTP only)", err)
		} else {
			log.Println("✓ Live order subscriber started")
		}
	}

	// Initialize OpenTelemetry tracing
	tracingEnabled, _ := strconv.ParseBool(os.Getenv("TRACING_ENABLED"))
	tracerProvider, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "liveshop-service",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		Endpoint:       getEnvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		Enabled:        tracingEnabled,
		SampleRate:     1.0,
	}, logger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize tracing: %v (continuing without tracing)", err)
	} else if tracingEnabled {
		log.Println("✓ OpenTelemetry tracing initialized")
	}

	// Rate limiter for the comment ingest endpoint
	ingestLimiter := middleware.NewRateLimiter(ctx, rate.Limit(cfg.CommentRateLimit), cfg.CommentRateBurst)

	// Initialize handlers (event publisher may be nil if NATS not configured)
	productsHandler := handlers.NewProductsHandler(productsRepo, variantService, eventsPublisher, logger)
	variantsHandler := handlers.NewVariantsHandler(variantService, attributesRepo)
	purchaseOrdersHandler := handlers.NewPurchaseOrdersHandler(purchaseOrderService, purchaseOrdersRepo)
	liveSessionsHandler := handlers.NewLiveSessionsHandler(liveOrderService, liveSessionsRepo)
	importHandler := handlers.NewImportHandler(productsRepo, variantService, logger)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Observability middleware (metrics + tracing)
	router.Use(metrics.Middleware())
	router.Use(tracing.Middleware())

	// CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/metrics", middleware.Handler())

	// Protected API routes
	api := router.Group("/api/v1")
	api.Use(middleware.DevelopmentAuthMiddleware())
	api.Use(middleware.TenantMiddleware())

	v1 := api.Group("")
	{
		products := v1.Group("/products")
		{
			products.GET("", productsHandler.GetProducts)
			products.GET("/batch", productsHandler.BatchGetProducts)
			products.GET("/code/:code", productsHandler.GetProductByCode)
			products.GET("/:id", productsHandler.GetProduct)
			products.GET("/:id/variants", productsHandler.GetVariants)
			products.POST("/search", productsHandler.SearchProducts)

			products.POST("", productsHandler.CreateProduct)
			products.PUT("/:id", productsHandler.UpdateProduct)
			products.PUT("/:id/status", productsHandler.UpdateProductStatus)
			products.PUT("/:id/stock", productsHandler.UpdateStock)

			products.POST("/:id/variants/preview", variantsHandler.PreviewVariants)
			products.POST("/:id/variants/generate", variantsHandler.GenerateVariants)

			products.DELETE("/:id", productsHandler.DeleteProduct)
			products.POST("/:id/cascade/validate", productsHandler.ValidateCascadeDelete)
			products.POST("/bulk/cascade", productsHandler.BulkCascadeDelete)

			// Import/Export
			products.GET("/import/template", importHandler.GetImportTemplate)
			products.POST("/import", importHandler.ImportProducts)
			products.POST("/export", importHandler.ExportProducts)
		}

		variants := v1.Group("/variants")
		{
			variants.POST("/conflicts/apply", variantsHandler.ApplyConflicts)
			variants.GET("/signature/parse", variantsHandler.ParseSignature)
		}

		codes := v1.Group("/codes")
		{
			codes.GET("/next", variantsHandler.NextCode)
			codes.POST("/check-gap", variantsHandler.CheckGap)
		}

		v1.GET("/attributes", variantsHandler.GetAttributes)

		purchaseOrders := v1.Group("/purchase-orders")
		{
			purchaseOrders.GET("", purchaseOrdersHandler.GetPurchaseOrders)
			purchaseOrders.GET("/:id", purchaseOrdersHandler.GetPurchaseOrder)
			purchaseOrders.POST("", purchaseOrdersHandler.CreatePurchaseOrder)
			purchaseOrders.PUT("/:id", purchaseOrdersHandler.UpdatePurchaseOrder)
			purchaseOrders.PUT("/:id/status", purchaseOrdersHandler.UpdateStatus)
			purchaseOrders.POST("/:id/receive", purchaseOrdersHandler.ReceivePurchaseOrder)
		}

		liveSessions := v1.Group("/live-sessions")
		{
			liveSessions.GET("", liveSessionsHandler.GetSessions)
			liveSessions.GET("/:id", liveSessionsHandler.GetSession)
			liveSessions.POST("", liveSessionsHandler.CreateSession)
			liveSessions.PUT("/:id/status", liveSessionsHandler.UpdateSessionStatus)
			liveSessions.POST("/:id/comments", ingestLimiter.Middleware(), liveSessionsHandler.IngestComment)
			liveSessions.GET("/:id/orders", liveSessionsHandler.GetSessionOrders)
			liveSessions.GET("/:id/stats", liveSessionsHandler.GetSessionStats)
		}

		liveOrders := v1.Group("/live-orders")
		{
			liveOrders.POST("/:orderId/confirm-index", liveSessionsHandler.ConfirmOrderIndex)
			liveOrders.PUT("/:orderId/status", liveSessionsHandler.UpdateOrderStatus)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("LiveShop service starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("Shutting down liveshop-service...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	ingestLimiter.Shutdown()

	if liveOrderSubscriber != nil {
		liveOrderSubscriber.Close()
	}

	if tracerProvider != nil {
		tracing.Shutdown(shutdownCtx, tracerProvider, logger)
	}

	log.Println("LiveShop service stopped")
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
