package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/CoderRaushan/whatsapp-web-clone/environments"
	"github.com/CoderRaushan/whatsapp-web-clone/handlers"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/middlewares"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/ws"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	webhookHandler *handlers.WebhookHandler,
	conversationHandler *handlers.ConversationHandler,
	messageHandler *handlers.MessageHandler,
	hub *ws.Hub,
	cfg *environments.Config,
) {
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/ws", hub.HandleWS)

	api := e.Group("/api")

	api.GET("/health", healthHandler.Health)

	api.GET("/conversations", conversationHandler.GetConversations)
	api.GET("/conversations/:waId/messages", conversationHandler.GetConversationMessages)

	api.POST("/send-message", messageHandler.SendMessage)

	// The webhook route stays open; sender verification happens upstream.
	api.POST("/webhook", webhookHandler.HandleWebhook)

	// The backfill route is guarded only when a key is configured.
	if cfg.Auth.SampleDataAPIKey != "" {
		api.POST("/process-sample-data", webhookHandler.ProcessSampleData,
			middlewares.APIKeyAuth(cfg.Auth.SampleDataAPIKey))
	} else {
		api.POST("/process-sample-data", webhookHandler.ProcessSampleData)
	}

	// Frontend assets; index.html handles client-side routing.
	e.Static("/", "public")
}
