package handlers

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/response"
)

type conversationReader interface {
	GetConversations(ctx context.Context) ([]domain.Contact, error)
	GetConversationMessages(ctx context.Context, waID string) ([]domain.Message, error)
}

type ConversationHandler struct {
	service conversationReader
}

func NewConversationHandler(service conversationReader) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// GetConversations godoc
// @Summary List conversations
// @Description Returns the contact directory ordered by most recent activity
// @Tags conversations
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/conversations [get]
func (h *ConversationHandler) GetConversations(c echo.Context) error {
	contacts, err := h.service.GetConversations(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, contacts)
}

// GetConversationMessages godoc
// @Summary Get conversation history
// @Description Returns every message exchanged with one participant in chronological order
// @Tags conversations
// @Produce json
// @Param waId path string true "Participant id"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/conversations/{waId}/messages [get]
func (h *ConversationHandler) GetConversationMessages(c echo.Context) error {
	waID := c.Param("waId")
	if waID == "" {
		return response.BadRequest(c, fmt.Errorf("missing participant id"))
	}

	messages, err := h.service.GetConversationMessages(c.Request().Context(), waID)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, messages)
}
