package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store"
)

// Outcome counts what happened to each candidate handed to Persist.
type Outcome struct {
	Inserted   int      `json:"inserted"`
	Duplicates int      `json:"duplicates"`
	Failed     int      `json:"failed"`
	IDs        []string `json:"ids,omitempty"`
}

// Sink stores candidates that have no undismissed twin.
type Sink struct {
	store store.NotificationStore
	log   zerolog.Logger
}

// NewSink creates a sink writing to s.
func NewSink(s store.NotificationStore, log zerolog.Logger) *Sink {
	return &Sink{store: s, log: log}
}

// Persist inserts candidates in order. A candidate whose (type, reference)
// already has an undismissed notification is skipped. A failed check or
// insert is logged and does not stop the remaining candidates. Candidates
// without a reference are always inserted.
func (s *Sink) Persist(ctx context.Context, userID string, candidates []domain.Candidate) Outcome {
	var out Outcome
	for _, c := range candidates {
		if ctx.Err() != nil {
			s.log.Warn().Err(ctx.Err()).Str("user_id", userID).Msg("Persist abandoned")
			break
		}

		log := s.log.With().
			Str("user_id", userID).
			Str("type", string(c.Type)).
			Str("reference_id", c.ReferenceID).
			Logger()

		if c.HasReference() {
			exists, err := s.store.ExistsUndismissed(ctx, userID, c.ReferenceID, c.Type)
			if err != nil {
				log.Error().Err(err).Msg("Failed to check for existing notification")
				out.Failed++
				continue
			}
			if exists {
				out.Duplicates++
				continue
			}
		}

		id, err := s.store.InsertNotification(ctx, userID, c)
		if err != nil {
			log.Error().Err(err).Msg("Failed to insert notification")
			out.Failed++
			continue
		}
		log.Debug().Str("notification_id", id).Msg("Notification created")
		out.Inserted++
		out.IDs = append(out.IDs, id)
	}
	return out
}
