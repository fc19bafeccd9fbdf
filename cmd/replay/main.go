package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/CoderRaushan/whatsapp-web-clone/environments"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/repository"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/service"
	"github.com/CoderRaushan/whatsapp-web-clone/internal/webhook"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/database"
	"github.com/CoderRaushan/whatsapp-web-clone/pkg/logger"
)

// Replays a directory of serialized webhook payloads through the
// reconciliation engine with no publisher attached. Used for offline
// backfill and for loading the provider's sample payload set.
func main() {
	logger.Init()

	dir := flag.String("dir", "./sample_payloads", "directory of webhook payload JSON files")
	flag.Parse()

	cfg := environments.Load()

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorf("Error closing database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		logger.Fatalf("Failed to read payload directory %s: %v", *dir, err)
	}

	contactRepo := repository.NewContactRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	processor := service.NewProcessorService(contactRepo, messageRepo)

	ctx := context.Background()

	processed := 0
	failed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(*dir, entry.Name())
		logger.Infof("Processing %s...", entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Errorf("Failed to read %s: %v", entry.Name(), err)
			failed++
			continue
		}

		env, err := webhook.ParsePayload(data)
		if err != nil {
			logger.Errorf("Failed to parse %s: %v", entry.Name(), err)
			failed++
			continue
		}

		// Events are discarded: there are no viewers to notify offline.
		if _, err := processor.ProcessPayload(ctx, env); err != nil {
			logger.Errorf("Failed to process %s: %v", entry.Name(), err)
			failed++
			continue
		}

		processed++
	}

	messageCount, err := messageRepo.Count(ctx)
	if err != nil {
		logger.Fatalf("Failed to count messages: %v", err)
	}
	contactCount, err := contactRepo.Count(ctx)
	if err != nil {
		logger.Fatalf("Failed to count contacts: %v", err)
	}

	logger.Infof("Replay complete: %d payloads processed, %d failed", processed, failed)
	logger.Infof("Totals: %d messages, %d contacts", messageCount, contactCount)
}
