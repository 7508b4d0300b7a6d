package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/notify"
	"github.com/dvloznov/finance-insights/internal/period"
	"github.com/dvloznov/finance-insights/internal/stats"
	"github.com/dvloznov/finance-insights/internal/store"
)

// Summarizer computes period summaries.
type Summarizer interface {
	Summarize(ctx context.Context, userID string, sel stats.Selection) (stats.Summary, error)
}

// Evaluator runs a notification pass.
type Evaluator interface {
	Run(ctx context.Context, userID string) (notify.Result, error)
}

// StatsHandler handles summary endpoints.
type StatsHandler struct {
	stats Summarizer
	now   func() time.Time
	log   zerolog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(s Summarizer, now func() time.Time, log zerolog.Logger) *StatsHandler {
	if now == nil {
		now = time.Now
	}
	return &StatsHandler{stats: s, now: now, log: log}
}

// GetStats handles GET /api/stats?period=week|month|semester|year, or
// ?from=YYYY-MM-DD&to=YYYY-MM-DD for a custom window.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	query := r.URL.Query()

	asOf := h.now()
	sel := stats.Selection{Period: period.Parse(query.Get("period")), AsOf: asOf}

	fromStr, toStr := query.Get("from"), query.Get("to")
	if fromStr != "" || toStr != "" {
		if fromStr == "" || toStr == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Both from and to are required for a custom range")
			return
		}
		from, err := civil.ParseDate(fromStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid from date format")
			return
		}
		to, err := civil.ParseDate(toStr)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid to date format")
			return
		}
		custom := period.Custom(from.In(asOf.Location()), to.In(asOf.Location()))
		sel.Custom = &custom
	}

	summary, err := h.stats.Summarize(ctx, userID, sel)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to compute stats")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, summary)
}

// NotificationsHandler handles the notification inbox and evaluation.
type NotificationsHandler struct {
	store     store.NotificationStore
	evaluator Evaluator
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewNotificationsHandler creates a new notifications handler. publisher may
// be nil, in which case asynchronous evaluation is unavailable.
func NewNotificationsHandler(s store.NotificationStore, e Evaluator, p jobs.Publisher, log zerolog.Logger) *NotificationsHandler {
	return &NotificationsHandler{store: s, evaluator: e, publisher: p, log: log}
}

// ListNotifications handles GET /api/notifications
func (h *NotificationsHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	query := r.URL.Query()

	filter := store.NotificationFilter{
		UnreadOnly:       query.Get("unread") == "true",
		IncludeDismissed: query.Get("include_dismissed") == "true",
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	notifications, err := h.store.ListNotifications(ctx, userID, filter)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to list notifications")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list notifications")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationsHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	count, err := h.store.CountUnread(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to count unread notifications")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to count notifications")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// MarkRead handles POST /api/notifications/{id}/read
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request, id string) {
	h.mutate(w, r, id, "read", h.store.MarkRead)
}

// Dismiss handles POST /api/notifications/{id}/dismiss
func (h *NotificationsHandler) Dismiss(w http.ResponseWriter, r *http.Request, id string) {
	h.mutate(w, r, id, "dismissed", h.store.Dismiss)
}

func (h *NotificationsHandler) mutate(w http.ResponseWriter, r *http.Request, id, state string,
	op func(ctx context.Context, userID, id string) error) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	if err := op(ctx, userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.WriteError(w, http.StatusNotFound, "Notification not found")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Str("notification_id", id).Msg("Failed to update notification")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": state})
}

// MarkAllRead handles POST /api/notifications/read-all
func (h *NotificationsHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	n, err := h.store.MarkAllRead(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to mark notifications read")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update notifications")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// Evaluate handles POST /api/notifications/evaluate. With ?async=true the
// pass is queued and the job is returned; otherwise it runs inline.
func (h *NotificationsHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	if r.URL.Query().Get("async") == "true" {
		if h.publisher == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, "Background evaluation is not configured")
			return
		}
		job := &jobs.EvaluateNotificationsJob{UserID: userID, Trigger: jobs.TriggerManual}
		if err := h.publisher.PublishEvaluation(ctx, job); err != nil {
			h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to enqueue evaluation")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue evaluation")
			return
		}
		middleware.WriteJSON(w, http.StatusAccepted, job)
		return
	}

	res, err := h.evaluator.Run(ctx, userID)
	if err != nil {
		if errors.Is(err, notify.ErrNoUser) {
			middleware.WriteError(w, http.StatusUnauthorized, "No user")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to evaluate notifications")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to evaluate notifications")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}. Jobs of other users are reported as
// not found.
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil || job.UserID != middleware.UserID(ctx) {
		if err != nil {
			h.log.Debug().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		}
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: middleware.UserID(ctx),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
