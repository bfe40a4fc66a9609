package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/elektromart/bundle_api/internal/cache"
	"github.com/elektromart/bundle_api/internal/config"
	"github.com/elektromart/bundle_api/internal/database"
	"github.com/elektromart/bundle_api/internal/handler"
	"github.com/elektromart/bundle_api/internal/middleware"
	"github.com/elektromart/bundle_api/internal/repository"
	"github.com/elektromart/bundle_api/internal/service"
	"github.com/elektromart/bundle_api/internal/sse"
	"github.com/elektromart/bundle_api/internal/utils"
	"github.com/elektromart/bundle_api/internal/worker"
)

// main is the application entrypoint for the bundle API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting bundle api")

	utils.InitJWT(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	bundleCache := cache.NewBundleCache(redisClient)

	// 4. Initialize repositories
	bundleRepo := repository.NewBundleRepository(db)
	itemRepo := repository.NewBundleItemRepository(db)
	slotRepo := repository.NewBundleSlotRepository(db)
	imageRepo := repository.NewBundleImageRepository(db)
	productRepo := repository.NewProductRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 4a. SSE hub for admin dashboards
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	// 5. Initialize services
	adminAuthSvc := service.NewAdminAuthService(adminRepo)
	bundleSvc := service.NewBundleService(bundleRepo, itemRepo, slotRepo, productRepo, bundleCache, notifier)
	analyticsSvc := service.NewAnalyticsService(bundleRepo, productRepo)

	s3Svc, err := service.NewS3Service(&cfg.S3)
	if err != nil {
		log.Error().Err(err).Msg("S3 service initialization failed")
		fmt.Fprintf(os.Stderr, "S3 service initialization failed: %v\n", err)
		os.Exit(1)
	}
	imageSvc := service.NewImageService(imageRepo, bundleRepo, s3Svc, bundleCache)

	// 6. Initialize handlers
	handlers := &Handlers{
		Health:  handler.NewHealthHandler(db, redisClient),
		Auth:    handler.NewAuthHandler(adminAuthSvc),
		Bundle:  handler.NewBundleHandler(bundleSvc, analyticsSvc),
		Item:    handler.NewBundleItemHandler(bundleSvc),
		Slot:    handler.NewBundleSlotHandler(bundleSvc),
		Image:   handler.NewBundleImageHandler(imageSvc),
		Product: handler.NewProductHandler(productRepo),
		Events:  handler.NewEventsHandler(hub),
	}

	// 7. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw)

	// 8a. Start background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go worker.NewCacheWarmWorker(bundleRepo, redisClient, 5*time.Minute).Start(workerCtx)

	// 9. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 10. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	workerCancel()

	// 11. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Bundle  *handler.BundleHandler
	Item    *handler.BundleItemHandler
	Slot    *handler.BundleSlotHandler
	Image   *handler.BundleImageHandler
	Product *handler.ProductHandler
	Events  *handler.EventsHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.Check)

	// Storefront routes (public)
	store := router.Group("/v1/bundles")
	{
		store.GET("", handlers.Bundle.ListAvailable)
		store.GET("/:slug", handlers.Bundle.GetBySlug)
		store.POST("/:slug/resolve", handlers.Bundle.ResolveSelection)
		store.POST("/:slug/purchase", handlers.Bundle.RecordPurchase)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		// Live change feed for open dashboards
		admin.GET("/events", handlers.Events.Stream)

		// Product picker for the bundle editor
		admin.GET("/products", handlers.Product.List)

		// Bundle management
		admin.GET("/bundles", handlers.Bundle.ListBundles)
		admin.POST("/bundles", handlers.Bundle.CreateBundle)
		admin.POST("/bundles/bulk", handlers.Bundle.BulkAction)
		admin.GET("/bundles/:id", handlers.Bundle.GetBundle)
		admin.PUT("/bundles/:id", handlers.Bundle.UpdateBundle)
		admin.DELETE("/bundles/:id", handlers.Bundle.DeleteBundle)
		admin.POST("/bundles/:id/duplicate", handlers.Bundle.DuplicateBundle)
		admin.POST("/bundles/:id/toggle", handlers.Bundle.ToggleBundle)
		admin.GET("/bundles/:id/analytics", handlers.Bundle.GetAnalytics)

		// Fixed bundle items
		admin.POST("/bundles/:id/items", handlers.Item.AddItem)
		admin.PUT("/bundles/:id/items/:itemId", handlers.Item.UpdateItem)
		admin.DELETE("/bundles/:id/items/:itemId", handlers.Item.RemoveItem)

		// Configurable bundle slots
		admin.POST("/bundles/:id/slots", handlers.Slot.AddSlot)
		admin.PUT("/bundles/:id/slots/:slotId", handlers.Slot.UpdateSlot)
		admin.DELETE("/bundles/:id/slots/:slotId", handlers.Slot.RemoveSlot)

		// Bundle images
		admin.POST("/bundles/:id/images", handlers.Image.Upload)
		admin.POST("/bundles/:id/images/:imageId/primary", handlers.Image.SetPrimary)
		admin.DELETE("/bundles/:id/images/:imageId", handlers.Image.Delete)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
