package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/logger"
)

// ConversationCache and ProviderClient are exported so callers can wire
// the optional collaborators as plain nil interfaces.
type ConversationCache interface {
	GetCachedConversations(ctx context.Context) ([]domain.Contact, error)
	CacheConversations(ctx context.Context, contacts []domain.Contact) error
	InvalidateConversations(ctx context.Context) error
}

type ProviderClient interface {
	SendText(ctx context.Context, to, text string) (string, error)
}

// ConversationService serves the chat views and outbound sends. The cache
// and provider client are both optional; the service degrades to plain
// repository reads and locally generated message ids without them.
type ConversationService struct {
	contacts       contactRepository
	messages       messageRepository
	cache          ConversationCache
	provider       ProviderClient
	businessNumber string
}

func NewConversationService(
	contacts contactRepository,
	messages messageRepository,
	cache ConversationCache,
	provider ProviderClient,
	businessNumber string,
) *ConversationService {
	return &ConversationService{
		contacts:       contacts,
		messages:       messages,
		cache:          cache,
		provider:       provider,
		businessNumber: businessNumber,
	}
}

func (s *ConversationService) GetConversations(ctx context.Context) ([]domain.Contact, error) {
	if s.cache != nil {
		cached, err := s.cache.GetCachedConversations(ctx)
		if err != nil {
			logger.Warnf("Failed to read conversation cache: %v", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	contacts, err := s.contacts.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheConversations(ctx, contacts); err != nil {
			logger.Warnf("Failed to cache conversations: %v", err)
		}
	}

	return contacts, nil
}

func (s *ConversationService) GetConversationMessages(ctx context.Context, waID string) ([]domain.Message, error) {
	return s.messages.GetConversation(ctx, waID)
}

// SendMessage stores an outbound message and returns it along with the
// events to publish. When no provider client is configured the message id
// is generated locally, which keeps the demo path working offline.
func (s *ConversationService) SendMessage(ctx context.Context, to, text, from string) (*domain.Message, []domain.Event, error) {
	if from == "" {
		from = s.businessNumber
	}

	name := "User " + to
	existing, err := s.contacts.GetByWaID(ctx, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up contact %s: %w", to, err)
	}
	if existing != nil {
		name = existing.Name
	}

	now := time.Now().Unix()

	messageID := ""
	if s.provider != nil {
		messageID, err = s.provider.SendText(ctx, to, text)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to send message via provider: %w", err)
		}
	} else {
		messageID = localMessageID()
	}

	msg := &domain.Message{
		MessageID:   messageID,
		MetaMsgID:   messageID,
		WaID:        to,
		From:        from,
		To:          to,
		Text:        text,
		Type:        "text",
		Timestamp:   now,
		Status:      domain.StatusSent,
		ContactName: name,
		Direction:   domain.DirectionOutbound,
	}

	if _, err := s.messages.InsertIfAbsent(ctx, msg); err != nil {
		return nil, nil, fmt.Errorf("failed to save outbound message: %w", err)
	}

	if err := s.contacts.Upsert(ctx, to, name, now, text); err != nil {
		return nil, nil, fmt.Errorf("failed to update contact %s: %w", to, err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateConversations(ctx); err != nil {
			logger.Warnf("Failed to invalidate conversation cache: %v", err)
		}
	}

	stored, err := s.messages.GetByMessageID(ctx, messageID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load saved message: %w", err)
	}
	if stored == nil {
		stored = msg
	}

	events := []domain.Event{{Name: domain.EventNewMessage, Payload: stored}}

	return stored, events, nil
}

func localMessageID() string {
	return fmt.Sprintf("demo_%d_%06d", time.Now().UnixMilli(), rand.IntN(1000000))
}
