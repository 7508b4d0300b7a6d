package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

// Store is an in-memory implementation of store.Repository.
// It is safe for concurrent use. Data is lost on restart; use the BigQuery
// backend for persistence.
type Store struct {
	mu            sync.RWMutex
	transactions  []domain.Transaction
	budgets       []domain.Budget
	goals         []domain.SavingsGoal
	contributions []domain.GoalContribution
	subscriptions []domain.Subscription
	notifications []*storedNotification
	seq           int64
	now           func() time.Time
}

type storedNotification struct {
	domain.Notification
	seq int64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadSnapshot reads a JSON snapshot file into the store.
func (s *Store) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("LoadSnapshot: reading %s: %w", path, err)
	}

	if err := s.LoadSnapshotJSON(data); err != nil {
		return fmt.Errorf("LoadSnapshot: %s: %w", path, err)
	}
	return nil
}

// LoadSnapshotJSON decodes a JSON snapshot and restores it.
func (s *Store) LoadSnapshotJSON(data []byte) error {
	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	s.Restore(snap)
	return nil
}

// Restore appends the snapshot's records to the store.
func (s *Store) Restore(snap store.Snapshot) {
	ctx := context.Background()
	// in-memory inserts never fail
	_ = s.InsertTransactions(ctx, snap.Transactions)
	_ = s.InsertBudgets(ctx, snap.Budgets)
	_ = s.InsertGoals(ctx, snap.Goals)
	_ = s.InsertContributions(ctx, snap.Contributions)
	_ = s.InsertSubscriptions(ctx, snap.Subscriptions)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range snap.Notifications {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		s.seq++
		s.notifications = append(s.notifications, &storedNotification{Notification: n, seq: s.seq})
	}
}

// ListTransactions returns the user's ledger ordered by date descending.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			result = append(result, tx)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[j].Date.Before(result[i].Date)
	})
	return result, nil
}

// ListRecurringExpenses returns active recurring expenses.
func (s *Store) ListRecurringExpenses(ctx context.Context, userID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Transaction
	for _, tx := range s.transactions {
		if tx.UserID == userID && tx.IsExpense() && tx.IsRecurring && tx.Status == domain.TransactionActive {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]domain.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.SavingsGoal
	for _, g := range s.goals {
		if g.UserID == userID {
			result = append(result, copyGoal(g))
		}
	}
	return result, nil
}

func (s *Store) ListContributions(ctx context.Context, userID string) ([]domain.GoalContribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.GoalContribution
	for _, c := range s.contributions {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *Store) ListSubscriptions(ctx context.Context, userID string) ([]domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Subscription
	for _, sub := range s.subscriptions {
		if sub.UserID == userID {
			result = append(result, copySubscription(sub))
		}
	}
	return result, nil
}

// ListUserIDs returns every user owning ledger data, sorted.
func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" {
			seen[id] = true
		}
	}
	for _, tx := range s.transactions {
		add(tx.UserID)
	}
	for _, b := range s.budgets {
		add(b.UserID)
	}
	for _, g := range s.goals {
		add(g.UserID)
	}
	for _, sub := range s.subscriptions {
		add(sub.UserID)
	}

	result := make([]string, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}

func (s *Store) InsertTransactions(ctx context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.New().String()
		}
		s.transactions = append(s.transactions, tx)
	}
	return nil
}

func (s *Store) InsertBudgets(ctx context.Context, budgets []domain.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range budgets {
		if b.ID == "" {
			b.ID = uuid.New().String()
		}
		s.budgets = append(s.budgets, b)
	}
	return nil
}

func (s *Store) InsertGoals(ctx context.Context, goals []domain.SavingsGoal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range goals {
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		s.goals = append(s.goals, copyGoal(g))
	}
	return nil
}

func (s *Store) InsertContributions(ctx context.Context, contributions []domain.GoalContribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range contributions {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		s.contributions = append(s.contributions, c)
	}
	return nil
}

func (s *Store) InsertSubscriptions(ctx context.Context, subs []domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range subs {
		if sub.ID == "" {
			sub.ID = uuid.New().String()
		}
		s.subscriptions = append(s.subscriptions, copySubscription(sub))
	}
	return nil
}

// Close implements store.Repository. It is a no-op.
func (s *Store) Close() error { return nil }

func copyGoal(g domain.SavingsGoal) domain.SavingsGoal {
	if g.TargetDate != nil {
		d := *g.TargetDate
		g.TargetDate = &d
	}
	return g
}

func copySubscription(sub domain.Subscription) domain.Subscription {
	if sub.NextBillingDate != nil {
		d := *sub.NextBillingDate
		sub.NextBillingDate = &d
	}
	if sub.ReminderDate != nil {
		d := *sub.ReminderDate
		sub.ReminderDate = &d
	}
	return sub
}

// Ensure Store implements store.Repository.
var _ store.Repository = (*Store)(nil)
