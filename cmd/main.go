package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"product-importer-service/internal/config"
	"product-importer-service/internal/events"
	"product-importer-service/internal/handlers"
	"product-importer-service/internal/importer"
	"product-importer-service/internal/middleware"
	"product-importer-service/internal/progress"
	"product-importer-service/internal/repository"
	"product-importer-service/internal/webhooks"
)

// @title Product Importer API
// @version 1.0.0
// @description CSV product catalog importer with progress tracking and webhooks

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	cfg := config.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize Redis client; the service runs without it when unreachable
	var redisClient *redis.Client
	if redisOpts, err := redis.ParseURL(cfg.RedisURL); err != nil {
		logger.WithError(err).Warn("Failed to parse Redis URL, caching disabled")
	} else {
		redisClient = redis.NewClient(redisOpts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis, caching disabled")
			redisClient = nil
		} else {
			logger.Info("Redis connected")
		}
		cancel()
	}

	// Repositories
	productsRepo := repository.NewProductsRepository(db, redisClient)
	webhooksRepo := repository.NewWebhooksRepository(db)

	// Event publisher is optional; enabled only when NATS_URL is set
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to NATS, event publishing disabled")
			eventsPublisher = nil
		} else {
			logger.Info("Events publisher initialized")
		}
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Import pipeline and worker pool
	tracker := progress.NewTracker()
	dispatcher := webhooks.NewDispatcher(cfg.WebhookTimeout, logger)
	pipeline := importer.NewPipeline(productsRepo, webhooksRepo, tracker, dispatcher, eventsPublisher, cfg.ImportBatchSize, logger)
	runner := importer.NewRunner(pipeline, cfg.ImportWorkers, logger)

	runnerCtx, stopWorkers := context.WithCancel(context.Background())
	runner.Start(runnerCtx)

	// Handlers
	productsHandler := handlers.NewProductsHandler(productsRepo, eventsPublisher, cfg.DefaultPageSize, cfg.MaxPageSize)
	importHandler := handlers.NewImportHandler(runner, tracker, cfg.UploadDir, logger)
	webhooksHandler := handlers.NewWebhooksHandler(webhooksRepo, dispatcher)
	healthHandler := handlers.NewHealthHandler(db)

	// Router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	router.POST("/upload", importHandler.Upload)
	router.GET("/progress/:task_id", importHandler.GetProgress)

	products := router.Group("/products")
	{
		products.GET("", productsHandler.ListProducts)
		products.POST("", productsHandler.CreateProduct)
		products.DELETE("", productsHandler.DeleteAllProducts)
		products.GET("/import/template", importHandler.GetImportTemplate)
		products.PUT("/:sku", productsHandler.UpdateProduct)
		products.DELETE("/:sku", productsHandler.DeleteProduct)
	}

	webhookRoutes := router.Group("/webhooks")
	{
		webhookRoutes.POST("", webhooksHandler.CreateWebhook)
		webhookRoutes.GET("", webhooksHandler.ListWebhooks)
		webhookRoutes.DELETE("/:id", webhooksHandler.DeleteWebhook)
		webhookRoutes.POST("/:id/test", webhooksHandler.TestWebhook)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Product importer service starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down product-importer-service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}

	stopWorkers()
	runner.Stop()

	logger.Info("Product importer service stopped")
}
