package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	transactionsTable  = "transactions"
	budgetsTable       = "budgets"
	goalsTable         = "savings_goals"
	contributionsTable = "goal_contributions"
	subscriptionsTable = "subscriptions"
	notificationsTable = "notifications"
)

// Dataset locates the tables of one deployment.
type Dataset struct {
	ProjectID string
	DatasetID string
}

// Table returns the backquoted, fully qualified name of table.
func (d Dataset) Table(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", d.ProjectID, d.DatasetID, table)
}

// runDML executes a DML statement and waits for it to finish.
func runDML(ctx context.Context, q *bigquery.Query, op string) error {
	_, err := affectedRows(ctx, q, op)
	return err
}

// affectedRows runs a DML statement and reports how many rows it touched.
func affectedRows(ctx context.Context, q *bigquery.Query, op string) (int, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: running query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("%s: job error: %w", op, err)
	}

	if status.Statistics == nil {
		return 0, nil
	}
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return int(qs.NumDMLAffectedRows), nil
	}
	return 0, nil
}
