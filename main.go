package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/codeninja-coin/admin-service/internal/auth"
	"github.com/codeninja-coin/admin-service/internal/cache"
	"github.com/codeninja-coin/admin-service/internal/client"
	"github.com/codeninja-coin/admin-service/internal/config"
	"github.com/codeninja-coin/admin-service/internal/events"
	"github.com/codeninja-coin/admin-service/internal/handlers"
	"github.com/codeninja-coin/admin-service/internal/media"
	"github.com/codeninja-coin/admin-service/internal/repositories/casdoor"
	"github.com/codeninja-coin/admin-service/internal/repositories/postgres"
	"github.com/codeninja-coin/admin-service/internal/services"
	"github.com/codeninja-coin/admin-service/internal/utils"
	"github.com/codeninja-coin/admin-service/internal/validator"
	"github.com/codeninja-coin/admin-service/internal/web"
	"github.com/codeninja-coin/admin-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Casdoor.Endpoint == "" {
		log.Fatalf("CASDOOR_ENDPOINT is required")
	}

	// Initialize logger
	slogLogger := utils.NewJSONLogger(utils.NewLogWriter(cfg.LogFile), cfg.LogLevel)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory sessions and no caching", "error", err)
		}
	}

	// Initialize event bus
	bus, err := events.NewBus(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}
	publisher := events.NewWatermillPublisher(bus.Publisher, slogLogger)

	// Initialize repositories
	repoConfig := postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	}
	repoManager := postgres.NewRepositoryManager(repoConfig)
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(repoManager, slogLogger, validator, services.ServiceManagerConfig{
		Publisher:   publisher,
		DomainTopic: cfg.Kafka.Topic,
		Bus:         bus,
		Cache:       cache.NewCacheManager(redisClient),
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	// Identity and browser sessions
	identity := casdoor.NewIdentityCasdoor(repoConfig.CasdoorConfig, repoManager.GetRepository().User(), httpClient)
	sessions := auth.NewSessionManager(auth.SessionManagerConfig{
		Provider:   identity,
		Store:      auth.NewStore(redisClient),
		Signer:     auth.NewCookieSigner(cfg.Session.Secret),
		Publisher:  publisher,
		Subscriber: bus.Broadcast,
		Topic:      cfg.Kafka.SessionTopic,
		TTL:        cfg.Session.TTL,
		Validator:  validator,
		Logger:     logger.With("component", "sessions"),
	})

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, logger, identity)

	pages, err := web.New(web.Config{
		Sessions:     sessions,
		API:          client.New(cfg.APIBaseURL, httpClient),
		Uploader:     media.NewUploader(cfg.Media, httpClient),
		AuthLimiter:  handlers.NewRateLimiter(cfg.AuthRateLimit),
		Logger:       logger.With("component", "web"),
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.Secure,
	})
	if err != nil {
		log.Fatalf("Failed to initialize pages: %v", err)
	}

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger, cfg.AllowedOrigins)

	// Setup routes
	handlerManager.SetupRoutes(router)
	pages.Register(router)

	// Background consumers
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if recorder := serviceManager.Activity(); recorder != nil {
		go func() {
			if err := recorder.Run(ctx); err != nil {
				logger.Error("Activity recorder stopped", "error", err)
			}
		}()
	}
	go pages.Run(ctx)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "api_base_url", cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown services, closing the database and Redis
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if err := bus.Close(); err != nil {
		logger.Error("Failed to close event bus", "error", err)
	}

	logger.Info("Server exited")
}
