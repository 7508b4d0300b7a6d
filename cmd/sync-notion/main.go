package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/finance-insights/internal/app"
	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	configPath := flag.String("config", os.Getenv("FINANCE_CONFIG"), "Path to YAML config file")
	userID := flag.String("user", "", "User whose notifications to mirror (required)")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides NOTION_DATABASE_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}

	// Validate required flags
	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if !cfg.NotionEnabled() {
		log.Fatal().Msg("Error: a Notion token and database ID are required")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer a.Close()

	notionClient := notionsync.NewClient(cfg.Notion.Token)

	res, err := notionsync.SyncNotifications(ctx, a.Repo, notionClient, cfg.Notion.DatabaseID, *userID, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d unchanged, %d failed.\n",
		res.Created, res.Updated, res.Archived, res.Skipped, res.Failed)
}
