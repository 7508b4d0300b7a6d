package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
)

// NewRouter registers every endpoint on a fresh ServeMux.
func NewRouter(statsH *StatsHandler, notificationsH *NotificationsHandler, jobsH *JobsHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statsH.GetStats(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			notificationsH.ListNotifications(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/notifications/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/notifications/")

		switch {
		case rest == "unread-count" && r.Method == http.MethodGet:
			notificationsH.UnreadCount(w, r)
		case rest == "evaluate" && r.Method == http.MethodPost:
			notificationsH.Evaluate(w, r)
		case rest == "read-all" && r.Method == http.MethodPost:
			notificationsH.MarkAllRead(w, r)
		case strings.HasSuffix(rest, "/read") && r.Method == http.MethodPost:
			id := strings.TrimSuffix(rest, "/read")
			if id == "" || strings.Contains(id, "/") {
				middleware.WriteError(w, http.StatusBadRequest, "Notification ID is required")
				return
			}
			notificationsH.MarkRead(w, r, id)
		case strings.HasSuffix(rest, "/dismiss") && r.Method == http.MethodPost:
			id := strings.TrimSuffix(rest, "/dismiss")
			if id == "" || strings.Contains(id, "/") {
				middleware.WriteError(w, http.StatusBadRequest, "Notification ID is required")
				return
			}
			notificationsH.Dismiss(w, r, id)
		default:
			middleware.WriteError(w, http.StatusNotFound, "Not found")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsH.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsH.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return mux
}
