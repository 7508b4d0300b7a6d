package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// UserSource lists the users a scheduler evaluates.
type UserSource interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// StaticUsers is a fixed user list.
type StaticUsers []string

// ListUserIDs implements UserSource.
func (u StaticUsers) ListUserIDs(context.Context) ([]string, error) {
	return append([]string(nil), u...), nil
}

// Scheduler publishes one evaluation job per user once at start and then on
// every interval. Overlapping passes for a user are allowed; deduplication
// happens when notifications are persisted.
type Scheduler struct {
	publisher Publisher
	users     UserSource
	interval  time.Duration
	log       zerolog.Logger
}

// NewScheduler creates a scheduler publishing to p.
func NewScheduler(p Publisher, users UserSource, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{publisher: p, users: users, interval: interval, log: log}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("Run: interval must be positive, got %s", s.interval)
	}

	s.Tick(ctx, TriggerStartup)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick(ctx, TriggerInterval)
		}
	}
}

// Tick publishes a job for every user and returns how many were published.
// Failures are logged; a failed user does not stop the others.
func (s *Scheduler) Tick(ctx context.Context, trigger Trigger) int {
	users, err := s.users.ListUserIDs(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list users for evaluation")
		return 0
	}

	published := 0
	for _, userID := range users {
		job := &EvaluateNotificationsJob{UserID: userID, Trigger: trigger}
		if err := s.publisher.PublishEvaluation(ctx, job); err != nil {
			s.log.Error().Err(err).Str("user_id", userID).Msg("Failed to publish evaluation job")
			continue
		}
		published++
	}

	s.log.Debug().
		Str("trigger", string(trigger)).
		Int("users", len(users)).
		Int("published", published).
		Msg("Scheduled notification evaluations")
	return published
}
