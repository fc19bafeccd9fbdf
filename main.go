package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/CoderRaushan/whatsapp-web-clone/environments"
	"github.com/CoderRaushan/whatsapp-web-clone/handlers"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/repository"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/service"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/ws"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/database"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/logger"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/provider"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/redis"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/validator"
	"github.com/CoderRaushan/whatsapp-web-clone/routes"

	_ "github.com/CoderRaushan/whatsapp-web-clone/docs" // swagger docs
)

// @title WhatsApp Web Clone API
// @version 1.0
// @description Webhook-driven chat service: ingests provider payloads, reconciles them into the conversation log, and streams updates to viewers

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /

// @schemes http https
func main() {
	logger.Init()

	// Load config
	cfg := environments.Load()

	logger.Infof("Starting WhatsApp Web Clone service...")

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedDemoData(db); err != nil {
			logger.Warnf("Failed to seed demo data: %v", err)
		}
	}

	// Init redis
	var redisClient *redis.Client
	redisClient, err = redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Redis not available, caching disabled: %v", err)
		redisClient = nil
	}

	// Provider send client; disabled unless a token is configured.
	var providerClient *provider.Client
	if cfg.Provider.Token != "" {
		providerClient = provider.NewClient(cfg.Provider)
		logger.Infof("Provider send API configured for phone number id %s", cfg.Provider.PhoneNumberID)
	} else {
		logger.Infof("Provider send API not configured, outbound ids will be generated locally")
	}

	// Initialize repositories
	contactRepo := repository.NewContactRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	// Initialize services
	processorService := service.NewProcessorService(contactRepo, messageRepo)
	conversationService := newConversationService(contactRepo, messageRepo, redisClient, providerClient, cfg)

	// Real-time hub
	hub := ws.NewHub()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	webhookHandler := handlers.NewWebhookHandler(processorService, hub)
	conversationHandler := handlers.NewConversationHandler(conversationService)
	messageHandler := handlers.NewMessageHandler(conversationService, hub)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			"x-api-key",
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, healthHandler, webhookHandler, conversationHandler, messageHandler, hub, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Disconnect viewers first so no broadcast lands mid-shutdown.
	hub.Close()

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}

// newConversationService leaves the cache and provider interfaces nil when
// the concrete clients are absent, instead of wrapping nil pointers.
func newConversationService(
	contactRepo *repository.ContactRepository,
	messageRepo *repository.MessageRepository,
	redisClient *redis.Client,
	providerClient *provider.Client,
	cfg *environments.Config,
) *service.ConversationService {
	var cache service.ConversationCache
	if redisClient != nil {
		cache = redisClient
	}

	var sender service.ProviderClient
	if providerClient != nil {
		sender = providerClient
	}

	return service.NewConversationService(contactRepo, messageRepo, cache, sender, cfg.Provider.BusinessNumber)
}
