package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// readRows drains a query iterator into rows of type T.
func readRows[T any](ctx context.Context, q *bigquery.Query, op string) ([]*T, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var rows []*T
	for {
		var r T
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

// ListTransactionsWithClient returns a user's ledger, newest first.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT transaction_id, user_id, tx_type, amount, category, description,
		       transaction_date, is_recurring, status, created_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY transaction_date DESC, created_ts DESC
	`, ds.Table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	rows, err := readRows[TransactionRow](ctx, q, "ListTransactions")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ListRecurringExpensesWithClient returns active recurring expenses.
func ListRecurringExpensesWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT transaction_id, user_id, tx_type, amount, category, description,
		       transaction_date, is_recurring, status, created_ts
		FROM %s
		WHERE user_id = @user_id
		  AND tx_type = 'expense'
		  AND is_recurring
		  AND status = 'active'
	`, ds.Table(transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	rows, err := readRows[TransactionRow](ctx, q, "ListRecurringExpenses")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ListBudgetsWithClient returns a user's budgets.
func ListBudgetsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.Budget, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT budget_id, user_id, category, allocated, spent
		FROM %s
		WHERE user_id = @user_id
		ORDER BY category
	`, ds.Table(budgetsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	rows, err := readRows[BudgetRow](ctx, q, "ListBudgets")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Budget, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ListGoalsWithClient returns a user's savings goals.
func ListGoalsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.SavingsGoal, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT goal_id, user_id, name, target_amount, current_amount, target_date, status
		FROM %s
		WHERE user_id = @user_id
		ORDER BY name
	`, ds.Table(goalsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	rows, err := readRows[GoalRow](ctx, q, "ListGoals")
	if err != nil {
		return nil, err
	}
	out := make([]domain.SavingsGoal, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ListContributionsWithClient returns a user's goal contribution log.
func ListContributionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.GoalContribution, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT contribution_id, goal_id, user_id, added_amount, added_by, recorded_ts
		FROM %s
		WHERE user_id = @user_id
		ORDER BY recorded_ts
	`, ds.Table(contributionsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	rows, err := readRows[ContributionRow](ctx, q, "ListContributions")
	if err != nil {
		return nil, err
	}
	out := make([]domain.GoalContribution, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ListSubscriptionsWithClient returns a user's subscriptions.
func ListSubscriptionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) ([]domain.Subscription, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT subscription_id, user_id, name, amount, frequency,
		       next_billing_date, reminder_date, status
		FROM %s
		WHERE user_id = @user_id
		ORDER BY name
	`, ds.Table(subscriptionsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	rows, err := readRows[SubscriptionRow](ctx, q, "ListSubscriptions")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Subscription, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ListUserIDsWithClient returns every user owning ledger data.
func ListUserIDsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset) ([]string, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT DISTINCT user_id FROM (
			SELECT user_id FROM %s
			UNION ALL SELECT user_id FROM %s
			UNION ALL SELECT user_id FROM %s
			UNION ALL SELECT user_id FROM %s
		)
		WHERE user_id IS NOT NULL
		ORDER BY user_id
	`, ds.Table(transactionsTable), ds.Table(budgetsTable), ds.Table(goalsTable), ds.Table(subscriptionsTable)))

	type userRow struct {
		UserID string `bigquery:"user_id"`
	}
	rows, err := readRows[userRow](ctx, q, "ListUserIDs")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.UserID)
	}
	return out, nil
}

// putRows streams rows into table.
func putRows[T any](ctx context.Context, client *bigquery.Client, ds Dataset, table string, rows []*T, op string) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("%s: inserting rows: %w", op, err)
	}
	return nil
}

// InsertTransactionsWithClient streams ledger entries stamped with now,
// assigning missing ids.
func InsertTransactionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, txs []domain.Transaction, now time.Time) error {
	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		rows = append(rows, transactionToRow(tx, now))
	}
	return putRows(ctx, client, ds, transactionsTable, rows, "InsertTransactions")
}

func InsertBudgetsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, budgets []domain.Budget) error {
	rows := make([]*BudgetRow, 0, len(budgets))
	for _, b := range budgets {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		rows = append(rows, budgetToRow(b))
	}
	return putRows(ctx, client, ds, budgetsTable, rows, "InsertBudgets")
}

func InsertGoalsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, goals []domain.SavingsGoal) error {
	rows := make([]*GoalRow, 0, len(goals))
	for _, g := range goals {
		if g.ID == "" {
			g.ID = uuid.NewString()
		}
		rows = append(rows, goalToRow(g))
	}
	return putRows(ctx, client, ds, goalsTable, rows, "InsertGoals")
}

func InsertContributionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, contributions []domain.GoalContribution) error {
	rows := make([]*ContributionRow, 0, len(contributions))
	for _, c := range contributions {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		rows = append(rows, contributionToRow(c))
	}
	return putRows(ctx, client, ds, contributionsTable, rows, "InsertContributions")
}

func InsertSubscriptionsWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, subs []domain.Subscription) error {
	rows := make([]*SubscriptionRow, 0, len(subs))
	for _, s := range subs {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		rows = append(rows, subscriptionToRow(s))
	}
	return putRows(ctx, client, ds, subscriptionsTable, rows, "InsertSubscriptions")
}
