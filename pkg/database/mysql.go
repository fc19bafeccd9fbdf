package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/CoderRaushan/whatsapp-web-clone/environments"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/logger"
)

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

func RunMigrations(db *sqlx.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS contacts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			wa_id VARCHAR(32) NOT NULL,
			name VARCHAR(191),
			last_message_time BIGINT NOT NULL DEFAULT 0,
			last_message TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_contacts_wa_id (wa_id),
			INDEX idx_contacts_last_message_time (last_message_time)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		"CREATE TABLE IF NOT EXISTS messages (" +
			"id BIGINT AUTO_INCREMENT PRIMARY KEY, " +
			"message_id VARCHAR(191) NOT NULL, " +
			"meta_msg_id VARCHAR(191), " +
			"wa_id VARCHAR(32), " +
			"sender VARCHAR(32) NOT NULL, " +
			"recipient VARCHAR(32), " +
			"`text` TEXT, " +
			"type VARCHAR(32) NOT NULL DEFAULT 'text', " +
			"`timestamp` BIGINT NOT NULL, " +
			"status VARCHAR(20) NOT NULL DEFAULT 'sent', " +
			"contact_name VARCHAR(191), " +
			"direction VARCHAR(10) NOT NULL DEFAULT 'inbound', " +
			"created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP, " +
			"updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP, " +
			"UNIQUE KEY uq_messages_message_id (message_id), " +
			"INDEX idx_messages_meta_msg_id (meta_msg_id), " +
			"INDEX idx_messages_wa_id (wa_id), " +
			"INDEX idx_messages_timestamp (`timestamp`)" +
			") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;",
	}

	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logger.Infof("Database migrations completed")

	return nil
}

func SeedDemoData(db *sqlx.DB) error {
	var count int

	err := db.Get(&count, "SELECT COUNT(*) FROM contacts")
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d contacts, skipping seed", count)
		return nil
	}

	now := time.Now().Unix()

	demoContacts := []struct {
		waID string
		name string
		last string
	}{
		{"919937320320", "Ravi Kumar", "Hi, I'd like to know more about your services."},
		{"929967673820", "Neha Joshi", "Hi, I saw your ad. Can you share more details?"},
		{"918765432109", "Amit Sharma", "Thanks, that was helpful!"},
	}

	for i, c := range demoContacts {
		_, err := db.Exec(
			"INSERT INTO contacts (wa_id, name, last_message_time, last_message) VALUES (?, ?, ?, ?)",
			c.waID, c.name, now-int64(i*3600), c.last,
		)
		if err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	logger.Infof("Seeded %d demo contacts", len(demoContacts))
	return nil
}
