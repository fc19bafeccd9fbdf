package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
)

// MessageRepository handles database operations for the message log.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = "id, message_id, meta_msg_id, wa_id, sender, recipient, `text`, type, `timestamp`, status, contact_name, direction, created_at, updated_at"

// InsertIfAbsent stores the message unless one with the same message_id
// already exists. Duplicates report created=false instead of an error, so
// reprocessing a payload is a no-op.
func (r *MessageRepository) InsertIfAbsent(ctx context.Context, msg *domain.Message) (bool, error) {
	query := "INSERT IGNORE INTO messages (message_id, meta_msg_id, wa_id, sender, recipient, `text`, type, `timestamp`, status, contact_name, direction, created_at, updated_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)"

	result, err := r.db.ExecContext(ctx, query,
		msg.MessageID, msg.MetaMsgID, msg.WaID, msg.From, msg.To,
		msg.Text, msg.Type, msg.Timestamp, msg.Status, msg.ContactName, msg.Direction,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert message %s: %w", msg.MessageID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

func (r *MessageRepository) GetByMessageID(ctx context.Context, messageID string) (*domain.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE message_id = ?"

	var msg domain.Message
	if err := r.db.GetContext(ctx, &msg, query, messageID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

// UpdateStatus sets the delivery status of the one message matching either
// identifier. It returns the updated record, or nil when nothing matched.
func (r *MessageRepository) UpdateStatus(ctx context.Context, messageID, metaMsgID string, status domain.MessageStatus) (*domain.Message, error) {
	query := "UPDATE messages SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE message_id = ? OR meta_msg_id = ? LIMIT 1"

	result, err := r.db.ExecContext(ctx, query, status, messageID, metaMsgID)
	if err != nil {
		return nil, fmt.Errorf("failed to update message status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		// Re-applying the current status also affects zero rows in MySQL,
		// so check existence before reporting not-found.
		existing, err := r.getByEitherID(ctx, messageID, metaMsgID)
		if err != nil || existing == nil {
			return nil, err
		}
		return existing, nil
	}

	return r.getByEitherID(ctx, messageID, metaMsgID)
}

func (r *MessageRepository) getByEitherID(ctx context.Context, messageID, metaMsgID string) (*domain.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE message_id = ? OR meta_msg_id = ? LIMIT 1"

	var msg domain.Message
	if err := r.db.GetContext(ctx, &msg, query, messageID, metaMsgID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &msg, nil
}

// GetConversation returns every message exchanged with one participant in
// chronological order.
func (r *MessageRepository) GetConversation(ctx context.Context, waID string) ([]domain.Message, error) {
	query := "SELECT " + messageColumns + " FROM messages WHERE wa_id = ? OR sender = ? ORDER BY `timestamp` ASC"

	var messages []domain.Message
	if err := r.db.SelectContext(ctx, &messages, query, waID, waID); err != nil {
		return nil, fmt.Errorf("failed to get conversation messages: %w", err)
	}

	return messages, nil
}

func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM messages"); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return count, nil
}
