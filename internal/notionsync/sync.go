// Package notionsync mirrors a user's notification inbox into a Notion
// database.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/store"
)

// NotificationSource lists a user's notifications.
type NotificationSource interface {
	ListNotifications(ctx context.Context, userID string, filter store.NotificationFilter) ([]domain.Notification, error)
}

// Result counts what a sync did, or would do in dry-run mode.
type Result struct {
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// SyncNotifications makes the Notion database match userID's inbox.
//
// Undismissed notifications without a page are created, pages whose read
// flag is stale are updated, and pages of dismissed or deleted notifications
// are archived. Pages belonging to other users are left alone, so one
// database can serve several users. Running it twice creates nothing new.
func SyncNotifications(ctx context.Context, src NotificationSource, notionClient NotionService, notionDBID, userID string, dryRun bool) (Result, error) {
	log := logger.ForUser(logger.FromContext(ctx), userID)
	var res Result

	if userID == "" {
		return res, fmt.Errorf("SyncNotifications: user id is required")
	}

	log.Info().Bool("dry_run", dryRun).Msg("Starting notification sync to Notion")

	notifications, err := src.ListNotifications(ctx, userID, store.NotificationFilter{IncludeDismissed: true})
	if err != nil {
		return res, fmt.Errorf("SyncNotifications: list notifications: %w", err)
	}

	pages, err := queryUserPages(ctx, notionClient, notionDBID, userID)
	if err != nil {
		return res, fmt.Errorf("SyncNotifications: query Notion pages: %w", err)
	}

	log.Info().
		Int("notification_count", len(notifications)).
		Int("notion_page_count", len(pages)).
		Msg("Retrieved notifications and Notion pages")

	live := make(map[string]domain.Notification, len(notifications))
	for _, n := range notifications {
		if !n.IsDismissed {
			live[n.ID] = n
		}
	}

	existing := make(map[string]notionapi.Page)
	for _, page := range pages {
		// The query filters on the user already; a row whose select was
		// edited by hand since is left alone.
		if extractUser(page) != userID {
			continue
		}
		id := extractNotificationID(page)
		if _, ok := live[id]; !ok {
			archive(ctx, notionClient, page, id, dryRun, &res)
			continue
		}
		if _, dup := existing[id]; dup {
			// A second page for the same notification is a leftover from an
			// interrupted run.
			archive(ctx, notionClient, page, id, dryRun, &res)
			continue
		}
		existing[id] = page
	}

	for _, n := range notifications {
		if n.IsDismissed {
			continue
		}
		if ctx.Err() != nil {
			return res, fmt.Errorf("SyncNotifications: %w", ctx.Err())
		}

		page, ok := existing[n.ID]
		switch {
		case ok && extractRead(page) == n.IsRead:
			res.Skipped++

		case ok:
			if dryRun {
				log.Info().Str("notification_id", n.ID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would update Notion page")
				res.Updated++
				continue
			}
			if _, err := notionClient.UpdatePage(ctx, string(page.ID), readStateProperties(n.IsRead)); err != nil {
				log.Warn().Err(err).Str("notification_id", n.ID).Str("page_id", string(page.ID)).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++

		default:
			if dryRun {
				log.Info().Str("notification_id", n.ID).Msg("[DRY RUN] Would create new Notion page")
				res.Created++
				continue
			}
			created, err := notionClient.CreatePage(ctx, notionDBID, NotificationToNotionProperties(n))
			if err != nil {
				log.Warn().Err(err).Str("notification_id", n.ID).Msg("Failed to create Notion page")
				res.Failed++
				continue
			}
			log.Debug().Str("notification_id", n.ID).Str("page_id", string(created.ID)).Msg("Created Notion page")
			res.Created++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("archived", res.Archived).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Notification sync completed")

	return res, nil
}

func archive(ctx context.Context, notionClient NotionService, page notionapi.Page, notificationID string, dryRun bool, res *Result) {
	log := logger.FromContext(ctx)

	if dryRun {
		log.Info().Str("notification_id", notificationID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive Notion page")
		res.Archived++
		return
	}
	if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
		log.Warn().Err(err).Str("notification_id", notificationID).Str("page_id", string(page.ID)).Msg("Failed to archive Notion page")
		res.Failed++
		return
	}
	res.Archived++
}
