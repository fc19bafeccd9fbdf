package handlers

import (
	"context"
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/webhook"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/response"
)

// payloadProcessor is the reconciliation entry point the handler drives.
type payloadProcessor interface {
	ProcessPayload(ctx context.Context, env *webhook.Envelope) ([]domain.Event, error)
}

// eventPublisher fans reconciliation events out to connected viewers.
type eventPublisher interface {
	Publish(events []domain.Event)
}

type WebhookHandler struct {
	processor payloadProcessor
	publisher eventPublisher
}

func NewWebhookHandler(processor payloadProcessor, publisher eventPublisher) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		publisher: publisher,
	}
}

// HandleWebhook godoc
// @Summary Receive a provider webhook
// @Description Reconciles one webhook payload against the message log and broadcasts the resulting events
// @Tags webhook
// @Accept json
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/webhook [post]
func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	var env webhook.Envelope
	if err := c.Bind(&env); err != nil {
		return response.BadRequest(c, err)
	}

	events, err := h.processor.ProcessPayload(c.Request().Context(), &env)

	// Items reconciled before a failure stay committed, so their events
	// still go out. Broadcast never gates the HTTP response.
	if len(events) > 0 {
		go h.publisher.Publish(events)
	}

	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, nil)
}

// ProcessSampleData godoc
// @Summary Replay sample payloads
// @Description Accepts one payload or a JSON array of payloads and reconciles them sequentially
// @Tags webhook
// @Accept json
// @Produce json
// @Param x-api-key header string false "API key when configured"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/process-sample-data [post]
func (h *WebhookHandler) ProcessSampleData(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BadRequest(c, err)
	}

	payloads, err := splitPayloads(body)
	if err != nil {
		return response.BadRequest(c, err)
	}

	processed := 0
	for _, raw := range payloads {
		env, err := webhook.ParsePayload(raw)
		if err != nil {
			return response.BadRequest(c, err)
		}

		events, err := h.processor.ProcessPayload(c.Request().Context(), env)
		if len(events) > 0 {
			go h.publisher.Publish(events)
		}
		if err != nil {
			return response.InternalServerError(c, err)
		}

		processed++
	}

	return response.OkWithMessage(c, "Sample data processed successfully", map[string]any{
		"processed": processed,
	})
}

// splitPayloads accepts either a single payload object or an array of them.
func splitPayloads(body []byte) ([]json.RawMessage, error) {
	var many []json.RawMessage
	if err := json.Unmarshal(body, &many); err == nil {
		return many, nil
	}

	var one json.RawMessage
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, err
	}

	return []json.RawMessage{one}, nil
}
