package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/store"
)

// ErrNoUser aborts a pass that has no user to scope it to.
var ErrNoUser = errors.New("notify: no authenticated user")

// Sources are the readers a pass fetches from.
type Sources interface {
	store.SubscriptionReader
	store.BudgetReader
	store.GoalReader
	store.RecurringExpenseReader
}

// Result summarizes one evaluation pass.
type Result struct {
	UserID      string    `json:"user_id"`
	AsOf        time.Time `json:"as_of"`
	Candidates  int       `json:"candidates"`
	FetchErrors []string  `json:"fetch_errors,omitempty"`
	Outcome
}

// Service runs the fetch, evaluate and persist pipeline for one user.
type Service struct {
	sources   Sources
	evaluator *Evaluator
	sink      *Sink
	now       func() time.Time
	log       zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock that supplies asOf.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires a pipeline over sources, persisting into notifications.
func NewService(sources Sources, notifications store.NotificationStore, evaluator *Evaluator, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		sources:   sources,
		evaluator: evaluator,
		sink:      NewSink(notifications, log),
		now:       time.Now,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one pass for userID. Only a missing user is an error: fetch
// failures leave the affected collection empty and are reported in Result.
func (s *Service) Run(ctx context.Context, userID string) (Result, error) {
	if userID == "" {
		return Result{}, ErrNoUser
	}

	log := logger.ForUser(s.log, userID)
	asOf := s.now()
	res := Result{UserID: userID, AsOf: asOf}

	snap, fetchErrs := s.fetch(ctx, userID, log)
	for _, err := range fetchErrs {
		res.FetchErrors = append(res.FetchErrors, err.Error())
	}

	candidates := s.evaluator.Evaluate(userID, asOf, snap)
	res.Candidates = len(candidates)
	res.Outcome = s.sink.Persist(ctx, userID, candidates)

	log.Info().
		Int("candidates", res.Candidates).
		Int("inserted", res.Inserted).
		Int("duplicates", res.Duplicates).
		Int("failed", res.Failed).
		Int("fetch_errors", len(res.FetchErrors)).
		Msg("Notification pass completed")

	return res, nil
}

// fetch reads the four collections concurrently. A failing read is logged
// and leaves its collection nil.
func (s *Service) fetch(ctx context.Context, userID string, log zerolog.Logger) (Snapshot, []error) {
	var snap Snapshot
	errs := make([]error, 4)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		subs, err := s.sources.ListSubscriptions(gctx, userID)
		if err != nil {
			errs[0] = fmt.Errorf("fetch subscriptions: %w", err)
			return nil
		}
		snap.Subscriptions = subs
		return nil
	})
	g.Go(func() error {
		budgets, err := s.sources.ListBudgets(gctx, userID)
		if err != nil {
			errs[1] = fmt.Errorf("fetch budgets: %w", err)
			return nil
		}
		snap.Budgets = budgets
		return nil
	})
	g.Go(func() error {
		goals, err := s.sources.ListGoals(gctx, userID)
		if err != nil {
			errs[2] = fmt.Errorf("fetch goals: %w", err)
			return nil
		}
		snap.Goals = goals
		return nil
	})
	g.Go(func() error {
		recurring, err := s.sources.ListRecurringExpenses(gctx, userID)
		if err != nil {
			errs[3] = fmt.Errorf("fetch recurring expenses: %w", err)
			return nil
		}
		snap.RecurringExpenses = recurring
		return nil
	})
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			log.Error().Err(err).Msg("Fetch failed, evaluating without it")
			failed = append(failed, err)
		}
	}
	return snap, failed
}
