package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/response"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/validator"
)

type messageSender interface {
	SendMessage(ctx context.Context, to, text, from string) (*domain.Message, []domain.Event, error)
}

type MessageHandler struct {
	service   messageSender
	publisher eventPublisher
}

func NewMessageHandler(service messageSender, publisher eventPublisher) *MessageHandler {
	return &MessageHandler{
		service:   service,
		publisher: publisher,
	}
}

type SendMessageRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required,max=4096"`
	From string `json:"from"`
}

// SendMessage godoc
// @Summary Send a message
// @Description Stores an outbound message and broadcasts it to connected viewers
// @Tags messages
// @Accept json
// @Produce json
// @Param message body SendMessageRequest true "Message to send"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} validator.ValidationErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/send-message [post]
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	msg, events, err := h.service.SendMessage(c.Request().Context(), req.To, req.Text, req.From)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	if len(events) > 0 {
		go h.publisher.Publish(events)
	}

	return response.Ok(c, msg)
}
