package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

// Repository implements store.Repository on BigQuery. It holds a shared
// client to avoid creating a connection per operation.
type Repository struct {
	client *bigquery.Client
	ds     Dataset
	now    func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the clock used for created timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// NewRepository creates a repository with its own client.
func NewRepository(ctx context.Context, projectID, datasetID string, opts ...Option) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, Dataset{ProjectID: projectID, DatasetID: datasetID}, opts...), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, ds Dataset, opts ...Option) *Repository {
	r := &Repository{client: client, ds: ds, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return ListTransactionsWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) ListRecurringExpenses(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return ListRecurringExpensesWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	return ListBudgetsWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]domain.SavingsGoal, error) {
	return ListGoalsWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) ListContributions(ctx context.Context, userID string) ([]domain.GoalContribution, error) {
	return ListContributionsWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	return ListSubscriptionsWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	return ListUserIDsWithClient(ctx, r.client, r.ds)
}

func (r *Repository) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	return InsertTransactionsWithClient(ctx, r.client, r.ds, txs, r.now())
}

func (r *Repository) InsertBudgets(ctx context.Context, budgets []domain.Budget) error {
	return InsertBudgetsWithClient(ctx, r.client, r.ds, budgets)
}

func (r *Repository) InsertGoals(ctx context.Context, goals []domain.SavingsGoal) error {
	return InsertGoalsWithClient(ctx, r.client, r.ds, goals)
}

func (r *Repository) InsertContributions(ctx context.Context, contributions []domain.GoalContribution) error {
	return InsertContributionsWithClient(ctx, r.client, r.ds, contributions)
}

func (r *Repository) InsertSubscriptions(ctx context.Context, subs []domain.Subscription) error {
	return InsertSubscriptionsWithClient(ctx, r.client, r.ds, subs)
}

func (r *Repository) ExistsUndismissed(ctx context.Context, userID, referenceID string, t domain.NotificationType) (bool, error) {
	return ExistsUndismissedWithClient(ctx, r.client, r.ds, userID, referenceID, t)
}

func (r *Repository) InsertNotification(ctx context.Context, userID string, c domain.Candidate) (string, error) {
	return InsertNotificationWithClient(ctx, r.client, r.ds, userID, c, r.now())
}

func (r *Repository) ListNotifications(ctx context.Context, userID string, filter store.NotificationFilter) ([]domain.Notification, error) {
	return ListNotificationsWithClient(ctx, r.client, r.ds, userID, filter)
}

func (r *Repository) CountUnread(ctx context.Context, userID string) (int, error) {
	return CountUnreadWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) MarkRead(ctx context.Context, userID, id string) error {
	return MarkReadWithClient(ctx, r.client, r.ds, userID, id)
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	return MarkAllReadWithClient(ctx, r.client, r.ds, userID)
}

func (r *Repository) Dismiss(ctx context.Context, userID, id string) error {
	return DismissWithClient(ctx, r.client, r.ds, userID, id)
}

// Ensure Repository implements store.Repository.
var _ store.Repository = (*Repository)(nil)
