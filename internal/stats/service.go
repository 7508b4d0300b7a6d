package stats

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-insights/internal/store"
)

// ErrNoUser is returned when a summary is requested without a user.
var ErrNoUser = errors.New("stats: no user")

// Sources are the readers a summary is built from.
type Sources interface {
	store.TransactionReader
	store.GoalReader
	store.BudgetReader
}

// Service fetches a user's ledger and computes summaries.
type Service struct {
	sources Sources
}

// NewService creates a summary service over sources.
func NewService(sources Sources) *Service {
	return &Service{sources: sources}
}

// Load fetches everything Compute needs for userID.
func (s *Service) Load(ctx context.Context, userID string) (Inputs, error) {
	if userID == "" {
		return Inputs{}, ErrNoUser
	}

	var in Inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.sources.ListTransactions(gctx, userID)
		if err != nil {
			return fmt.Errorf("transactions: %w", err)
		}
		in.Transactions = txs
		return nil
	})
	g.Go(func() error {
		goals, err := s.sources.ListGoals(gctx, userID)
		if err != nil {
			return fmt.Errorf("goals: %w", err)
		}
		in.Goals = goals
		return nil
	})
	g.Go(func() error {
		contributions, err := s.sources.ListContributions(gctx, userID)
		if err != nil {
			return fmt.Errorf("contributions: %w", err)
		}
		in.Contributions = contributions
		return nil
	})
	g.Go(func() error {
		budgets, err := s.sources.ListBudgets(gctx, userID)
		if err != nil {
			return fmt.Errorf("budgets: %w", err)
		}
		in.Budgets = budgets
		return nil
	})

	if err := g.Wait(); err != nil {
		return Inputs{}, fmt.Errorf("Load: %w", err)
	}
	return in, nil
}

// Summarize loads userID's data and computes the summary for sel.
func (s *Service) Summarize(ctx context.Context, userID string, sel Selection) (Summary, error) {
	in, err := s.Load(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("Summarize: %w", err)
	}
	return Compute(in, sel), nil
}
