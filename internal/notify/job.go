package notify

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/jobs"
)

// JobHandler adapts the service to the job queue. A pass in which some
// candidates failed to persist is reported as an error so the queue retries
// it; deduplication makes the retry insert only what is still missing.
func (s *Service) JobHandler() jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		evalJob, ok := job.(*jobs.EvaluateNotificationsJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log := s.log.With().
			Str("job_id", evalJob.JobID).
			Str("trigger", string(evalJob.Trigger)).
			Int("attempt", evalJob.RetryCount+1).
			Logger()
		log.Debug().Str("user_id", evalJob.UserID).Msg("Processing evaluation job")

		res, err := s.Run(ctx, evalJob.UserID)
		if err != nil {
			return fmt.Errorf("evaluate %s: %w", evalJob.UserID, err)
		}

		evalJob.Inserted += res.Inserted
		evalJob.Duplicates = res.Duplicates

		if res.Failed > 0 {
			return fmt.Errorf("evaluate %s: %d notifications failed to persist", evalJob.UserID, res.Failed)
		}
		return nil
	}
}
