package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/CoderRaushan/whatsapp-web-clone/environments"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/logger"
)

type Client struct {
	client valkey.Client
}

const (
	conversationsKey = "conversations"
	conversationsTTL = 30 * time.Second
)

func NewRedisClient(cfg environments.RedisConfig) (*Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Valkey client: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Connected to Redis (via Valkey client)")

	return &Client{client: client}, nil
}

// CacheConversations stores the full conversation list under a short TTL.
func (c *Client) CacheConversations(ctx context.Context, contacts []domain.Contact) error {
	data, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("failed to marshal conversations: %w", err)
	}

	err = c.client.Do(ctx, c.client.B().Set().Key(conversationsKey).Value(string(data)).Ex(conversationsTTL).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to cache conversations: %w", err)
	}

	logger.Debugf("Cached %d conversations in Redis", len(contacts))

	return nil
}

// GetCachedConversations returns nil with no error on a cache miss.
func (c *Client) GetCachedConversations(ctx context.Context) ([]domain.Contact, error) {
	result := c.client.Do(ctx, c.client.B().Get().Key(conversationsKey).Build())
	if result.Error() != nil {
		if valkey.IsValkeyNil(result.Error()) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached conversations: %w", result.Error())
	}

	data, err := result.ToString()
	if err != nil {
		return nil, fmt.Errorf("failed to read cached conversations: %w", err)
	}

	var contacts []domain.Contact
	if err := json.Unmarshal([]byte(data), &contacts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached conversations: %w", err)
	}

	return contacts, nil
}

// InvalidateConversations drops the cached list after a write.
func (c *Client) InvalidateConversations(ctx context.Context) error {
	err := c.client.Do(ctx, c.client.B().Del().Key(conversationsKey).Build()).Error()
	if err != nil {
		return fmt.Errorf("failed to invalidate conversation cache: %w", err)
	}

	return nil
}

func (c *Client) Close() error {
	c.client.Close()
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}
