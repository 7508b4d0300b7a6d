package bigquery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

// ExistsUndismissedWithClient reports whether the user has an undismissed
// notification of type t about referenceID.
func ExistsUndismissedWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, referenceID string, t domain.NotificationType) (bool, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT COUNT(1) AS n
		FROM %s
		WHERE user_id = @user_id
		  AND reference_id = @reference_id
		  AND type = @type
		  AND NOT is_dismissed
	`, ds.Table(notificationsTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "reference_id", Value: referenceID},
		{Name: "type", Value: string(t)},
	}

	rows, err := readRows[countRow](ctx, q, "ExistsUndismissed")
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && rows[0].N > 0, nil
}

type countRow struct {
	N int64 `bigquery:"n"`
}

// InsertNotificationWithClient inserts a notification created at createdAt.
// DML is used so the row can be updated immediately, which streamed rows
// cannot.
func InsertNotificationWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, c domain.Candidate, createdAt time.Time) (string, error) {
	id := uuid.NewString()

	q := client.Query(insertNotificationSQL(ds))
	q.Parameters = insertNotificationParams(id, userID, c, createdAt)

	if err := runDML(ctx, q, "InsertNotification"); err != nil {
		return "", err
	}
	return id, nil
}

func insertNotificationSQL(ds Dataset) string {
	return fmt.Sprintf(`
		INSERT %s (
			notification_id, user_id, type, title, message,
			reference_id, reference_type, priority, link_path, link_label,
			is_read, is_dismissed, created_ts
		)
		VALUES (
			@notification_id, @user_id, @type, @title, @message,
			NULLIF(@reference_id, ''), NULLIF(@reference_type, ''), @priority,
			NULLIF(@link_path, ''), NULLIF(@link_label, ''),
			FALSE, FALSE, @created_ts
		)
	`, ds.Table(notificationsTable))
}

func insertNotificationParams(id, userID string, c domain.Candidate, createdAt time.Time) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "notification_id", Value: id},
		{Name: "user_id", Value: userID},
		{Name: "type", Value: string(c.Type)},
		{Name: "title", Value: c.Title},
		{Name: "message", Value: c.Message},
		{Name: "reference_id", Value: c.ReferenceID},
		{Name: "reference_type", Value: string(c.ReferenceType)},
		{Name: "priority", Value: string(c.Priority)},
		{Name: "link_path", Value: c.LinkPath},
		{Name: "link_label", Value: c.LinkLabel},
		{Name: "created_ts", Value: createdAt.UTC()},
	}
}

// notificationQuery builds the inbox query for filter.
func notificationQuery(ds Dataset, filter store.NotificationFilter) string {
	var b strings.Builder
	fmt.Fprintf(&b, `
		SELECT notification_id, user_id, type, title, message, reference_id,
		       reference_type, priority, link_path, link_label, is_read,
		       is_dismissed, created_ts
		FROM %s
		WHERE user_id = @user_id`, ds.Table(notificationsTable))
	if !filter.IncludeDismissed {
		b.WriteString("\n\t\t  AND NOT is_dismissed")
	}
	if filter.UnreadOnly {
		b.WriteString("\n\t\t  AND NOT is_read")
	}
	b.WriteString("\n\t\tORDER BY created_ts DESC")
	if filter.Limit > 0 {
		fmt.Fprintf(&b, "\n\t\tLIMIT %d", filter.Limit)
	}
	return b.String()
}

// ListNotificationsWithClient returns notifications newest first.
func ListNotificationsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, filter store.NotificationFilter) ([]domain.Notification, error) {
	q := client.Query(notificationQuery(ds, filter))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	rows, err := readRows[NotificationRow](ctx, q, "ListNotifications")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CountUnreadWithClient counts unread, undismissed notifications.
func CountUnreadWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) (int, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT COUNT(1) AS n
		FROM %s
		WHERE user_id = @user_id AND NOT is_read AND NOT is_dismissed
	`, ds.Table(notificationsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	rows, err := readRows[countRow](ctx, q, "CountUnread")
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return int(rows[0].N), nil
}

// setFlagWithClient sets column to TRUE on one notification. The statement
// matches already-set rows too, so zero affected rows means not found.
func setFlagWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, id, column, op string) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE
		WHERE user_id = @user_id AND notification_id = @notification_id
	`, ds.Table(notificationsTable), column))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "notification_id", Value: id},
	}

	n, err := affectedRows(ctx, q, op)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: notification %s: %w", op, id, store.ErrNotFound)
	}
	return nil
}

func MarkReadWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, id string) error {
	return setFlagWithClient(ctx, client, ds, userID, id, "is_read", "MarkRead")
}

func DismissWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID, id string) error {
	return setFlagWithClient(ctx, client, ds, userID, id, "is_dismissed", "Dismiss")
}

// MarkAllReadWithClient marks every visible unread notification as read.
func MarkAllReadWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) (int, error) {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s
		SET is_read = TRUE
		WHERE user_id = @user_id AND NOT is_read AND NOT is_dismissed
	`, ds.Table(notificationsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	return affectedRows(ctx, q, "MarkAllRead")
}
