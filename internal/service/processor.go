package service

import (
	"context"
	"fmt"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/webhook"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/logger"
)

// Small internal interfaces so we can test without touching a real DB.
type contactRepository interface {
	Upsert(ctx context.Context, waID, name string, lastMessageTime int64, lastMessage string) error
	GetAll(ctx context.Context) ([]domain.Contact, error)
	GetByWaID(ctx context.Context, waID string) (*domain.Contact, error)
}

type messageRepository interface {
	InsertIfAbsent(ctx context.Context, msg *domain.Message) (bool, error)
	GetByMessageID(ctx context.Context, messageID string) (*domain.Message, error)
	UpdateStatus(ctx context.Context, messageID, metaMsgID string, status domain.MessageStatus) (*domain.Message, error)
	GetConversation(ctx context.Context, waID string) ([]domain.Message, error)
}

// ProcessorService reconciles normalized webhook batches against the
// contact directory and the message log. It returns the domain events each
// pass produced; publishing them is the caller's concern.
type ProcessorService struct {
	contacts contactRepository
	messages messageRepository
}

func NewProcessorService(contacts contactRepository, messages messageRepository) *ProcessorService {
	return &ProcessorService{
		contacts: contacts,
		messages: messages,
	}
}

// ProcessPayload normalizes one raw envelope and reconciles the result.
// Payloads without the expected change structure are a no-op, not an error.
func (s *ProcessorService) ProcessPayload(ctx context.Context, env *webhook.Envelope) ([]domain.Event, error) {
	batch := webhook.Normalize(env)
	if batch == nil {
		logger.Debugf("Payload carries no recognized change, skipping")
		return nil, nil
	}

	return s.ProcessBatch(ctx, batch)
}

// ProcessBatch applies a normalized batch item by item: messages first,
// then status updates, each in array order. A storage error aborts the
// current item and surfaces as the batch error; items already applied stay
// applied, and events gathered so far are still returned.
func (s *ProcessorService) ProcessBatch(ctx context.Context, batch *domain.NormalizedBatch) ([]domain.Event, error) {
	if batch == nil {
		return nil, nil
	}

	for _, dropped := range batch.Dropped {
		logger.Warnf("Dropping message %s: %s", dropped.MessageID, dropped.Reason)
	}

	var events []domain.Event

	for _, in := range batch.Messages {
		evt, err := s.applyMessage(ctx, in)
		if err != nil {
			return events, err
		}
		if evt != nil {
			events = append(events, *evt)
		}
	}

	for _, st := range batch.Statuses {
		evt, err := s.applyStatus(ctx, st)
		if err != nil {
			return events, err
		}
		if evt != nil {
			events = append(events, *evt)
		}
	}

	return events, nil
}

// applyMessage upserts the contact entry and inserts the message if its id
// is new. The contact upsert happens unconditionally so a duplicate message
// still refreshes the directory summary.
func (s *ProcessorService) applyMessage(ctx context.Context, in domain.IncomingMessage) (*domain.Event, error) {
	preview := in.Text
	if preview == "" {
		preview = in.Type
	}

	if err := s.contacts.Upsert(ctx, in.WaID, in.ContactName, in.Timestamp, preview); err != nil {
		return nil, fmt.Errorf("failed to upsert contact for message %s: %w", in.MessageID, err)
	}

	direction := domain.DirectionInbound
	to := in.BusinessNumber
	if in.From == in.BusinessNumber {
		direction = domain.DirectionOutbound
		to = in.WaID
	}

	msg := &domain.Message{
		MessageID:   in.MessageID,
		MetaMsgID:   in.MessageID,
		WaID:        in.WaID,
		From:        in.From,
		To:          to,
		Text:        in.Text,
		Type:        in.Type,
		Timestamp:   in.Timestamp,
		Status:      domain.StatusSent,
		ContactName: in.ContactName,
		Direction:   direction,
	}

	created, err := s.messages.InsertIfAbsent(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to save message %s: %w", in.MessageID, err)
	}

	if !created {
		logger.Debugf("Message %s already exists, skipping", in.MessageID)
		return nil, nil
	}

	stored, err := s.messages.GetByMessageID(ctx, in.MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved message %s: %w", in.MessageID, err)
	}
	if stored == nil {
		stored = msg
	}

	logger.Infof("Saved message %s from %s (%s)", in.MessageID, in.ContactName, in.WaID)

	return &domain.Event{Name: domain.EventNewMessage, Payload: stored}, nil
}

// applyStatus updates the one message matching either identifier. A status
// for an unknown message is a diagnostic, not an error, and emits nothing.
// Re-applying the same status emits again; only creation is deduplicated.
func (s *ProcessorService) applyStatus(ctx context.Context, st domain.StatusUpdate) (*domain.Event, error) {
	updated, err := s.messages.UpdateStatus(ctx, st.MessageID, st.MetaMsgID, st.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to update status for message %s: %w", st.MessageID, err)
	}

	if updated == nil {
		logger.Warnf("Status update target not found: id=%s meta_msg_id=%s", st.MessageID, st.MetaMsgID)
		return nil, nil
	}

	logger.Infof("Updated message status: %s -> %s", updated.MessageID, st.Status)

	return &domain.Event{
		Name: domain.EventStatusUpdate,
		Payload: domain.StatusUpdatePayload{
			MessageID: st.MessageID,
			MetaMsgID: st.MetaMsgID,
			Status:    st.Status,
		},
	}, nil
}
