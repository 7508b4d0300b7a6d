// Package store defines the persistence contracts used by the aggregation
// and notification services. Implementations live in store/inmemory and
// infra/bigquery.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/finance-insights/internal/domain"
)

// ErrNotFound is returned when a record addressed by id does not exist or
// belongs to another user.
var ErrNotFound = errors.New("not found")

// TransactionReader reads a user's ledger, newest first.
type TransactionReader interface {
	ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error)
}

// RecurringExpenseReader reads the active recurring expenses of a user.
type RecurringExpenseReader interface {
	ListRecurringExpenses(ctx context.Context, userID string) ([]domain.Transaction, error)
}

// BudgetReader reads the current budget allocations of a user.
type BudgetReader interface {
	ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error)
}

// GoalReader reads savings goals and their contribution log.
type GoalReader interface {
	ListGoals(ctx context.Context, userID string) ([]domain.SavingsGoal, error)
	ListContributions(ctx context.Context, userID string) ([]domain.GoalContribution, error)
}

// SubscriptionReader reads the tracked subscriptions of a user.
type SubscriptionReader interface {
	ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error)
}

// NotificationFilter narrows ListNotifications.
type NotificationFilter struct {
	UnreadOnly       bool
	IncludeDismissed bool
	Limit            int
}

// NotificationStore persists alerts and their read/dismissed flags.
type NotificationStore interface {
	// ExistsUndismissed reports whether the user already has an undismissed
	// notification of type t about referenceID.
	ExistsUndismissed(ctx context.Context, userID, referenceID string, t domain.NotificationType) (bool, error)

	// InsertNotification persists a candidate and returns the new id.
	InsertNotification(ctx context.Context, userID string, c domain.Candidate) (string, error)

	// ListNotifications returns notifications newest first.
	ListNotifications(ctx context.Context, userID string, filter NotificationFilter) ([]domain.Notification, error)

	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	Dismiss(ctx context.Context, userID, id string) error
}

// Writer records ledger entities. Used by seeding and imports.
type Writer interface {
	InsertTransactions(ctx context.Context, txs []domain.Transaction) error
	InsertBudgets(ctx context.Context, budgets []domain.Budget) error
	InsertGoals(ctx context.Context, goals []domain.SavingsGoal) error
	InsertContributions(ctx context.Context, contributions []domain.GoalContribution) error
	InsertSubscriptions(ctx context.Context, subs []domain.Subscription) error
}

// UserLister enumerates users that own any ledger data.
type UserLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// Repository is everything a backend provides.
type Repository interface {
	TransactionReader
	RecurringExpenseReader
	BudgetReader
	GoalReader
	SubscriptionReader
	NotificationStore
	Writer
	UserLister
	Close() error
}

// Snapshot is the JSON layout used to seed a store.
type Snapshot struct {
	Transactions  []domain.Transaction      `json:"transactions"`
	Budgets       []domain.Budget           `json:"budgets"`
	Goals         []domain.SavingsGoal      `json:"goals"`
	Contributions []domain.GoalContribution `json:"contributions"`
	Subscriptions []domain.Subscription     `json:"subscriptions"`
	Notifications []domain.Notification     `json:"notifications,omitempty"`
}
