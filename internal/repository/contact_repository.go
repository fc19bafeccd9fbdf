package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/CoderRaushan/whatsapp-web-clone/internal/domain"
)

// ContactRepository handles database operations for the contact directory.
type ContactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Upsert inserts the contact or refreshes its display name and last-message
// summary. The single-statement upsert keeps concurrent webhook passes from
// corrupting the row; last writer wins on the summary fields.
func (r *ContactRepository) Upsert(ctx context.Context, waID, name string, lastMessageTime int64, lastMessage string) error {
	query := `
		INSERT INTO contacts (wa_id, name, last_message_time, last_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			last_message_time = VALUES(last_message_time),
			last_message = VALUES(last_message),
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, waID, name, lastMessageTime, lastMessage); err != nil {
		return fmt.Errorf("failed to upsert contact %s: %w", waID, err)
	}

	return nil
}

// GetAll returns the directory ordered by most recent activity.
func (r *ContactRepository) GetAll(ctx context.Context) ([]domain.Contact, error) {
	query := `
		SELECT id, wa_id, name, last_message_time, last_message, created_at, updated_at
		FROM contacts
		ORDER BY last_message_time DESC
	`

	var contacts []domain.Contact
	if err := r.db.SelectContext(ctx, &contacts, query); err != nil {
		return nil, fmt.Errorf("failed to get contacts: %w", err)
	}

	return contacts, nil
}

func (r *ContactRepository) GetByWaID(ctx context.Context, waID string) (*domain.Contact, error) {
	query := `
		SELECT id, wa_id, name, last_message_time, last_message, created_at, updated_at
		FROM contacts
		WHERE wa_id = ?
	`

	var contact domain.Contact
	if err := r.db.GetContext(ctx, &contact, query, waID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return &contact, nil
}

func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM contacts"); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	return count, nil
}
