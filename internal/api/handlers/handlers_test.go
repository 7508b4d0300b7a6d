package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/jobs"
	jobsmem "github.com/dvloznov/finance-insights/internal/jobs/inmemory"
	"github.com/dvloznov/finance-insights/internal/logger"
	"github.com/dvloznov/finance-insights/internal/money"
	"github.com/dvloznov/finance-insights/internal/notify"
	"github.com/dvloznov/finance-insights/internal/stats"
	"github.com/dvloznov/finance-insights/internal/store/inmemory"
)

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	published []*jobs.EvaluateNotificationsJob
}

func (p *recordingPublisher) PublishEvaluation(ctx context.Context, job *jobs.EvaluateNotificationsJob) error {
	job.JobID = "job-1"
	job.Status = jobs.JobStatusPending
	p.published = append(p.published, job)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type testServer struct {
	handler   http.Handler
	store     *inmemory.Store
	jobs      *jobsmem.Store
	publisher *recordingPublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	log := logger.NewWithWriter(&bytes.Buffer{})
	clock := func() time.Time { return testNow }

	mem := inmemory.NewStore(inmemory.WithClock(clock))
	_ = mem.InsertTransactions(ctx, []domain.Transaction{
		{UserID: "u1", Type: domain.TransactionExpense, Amount: 1000, Category: "Rent", Date: civil.Date{Year: 2024, Month: 1, Day: 15}},
		{UserID: "u1", Type: domain.TransactionIncome, Amount: 1500, Category: "Salary", Date: civil.Date{Year: 2024, Month: 1, Day: 1}},
	})
	_ = mem.InsertBudgets(ctx, []domain.Budget{{ID: "b1", UserID: "u1", Category: "Food", Allocated: 200, Spent: 180}})

	svc := notify.NewService(mem, mem, notify.NewEvaluator(notify.DefaultRules(money.New("USD"))...), log, notify.WithClock(clock))
	jobStore := jobsmem.NewStore()
	pub := &recordingPublisher{}

	router := NewRouter(
		NewStatsHandler(stats.NewService(mem), clock, log),
		NewNotificationsHandler(mem, svc, pub, log),
		NewJobsHandler(jobStore, log),
	)
	return &testServer{handler: middleware.Chain(router, log), store: mem, jobs: jobStore, publisher: pub}
}

func (s *testServer) do(t *testing.T, method, path, user string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set(middleware.UserHeader, user)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/stats?period=month", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var summary stats.Summary
	decode(t, rec, &summary)
	if summary.Windowed.Balance.Current != 500 {
		t.Errorf("balance = %v, want 500", summary.Windowed.Balance.Current)
	}
	if summary.Period != "month" {
		t.Errorf("period = %q", summary.Period)
	}
}

func TestGetStats_CustomRange(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/stats?from=2024-01-10&to=2024-01-31", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var summary stats.Summary
	decode(t, rec, &summary)
	if summary.Windowed.Income.Current != 0 || summary.Windowed.Expenses.Current != 1000 {
		t.Errorf("windowed = %+v", summary.Windowed)
	}
}

func TestGetStats_BadRequests(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{
		"/api/stats?from=2024-01-10",
		"/api/stats?from=yesterday&to=2024-01-31",
		"/api/stats?from=2024-01-01&to=31/01/2024",
	} {
		if rec := s.do(t, http.MethodGet, path, "u1"); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
	if rec := s.do(t, http.MethodPost, "/api/stats", "u1"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}

func TestRequiresUser(t *testing.T) {
	s := newTestServer(t)

	if rec := s.do(t, http.MethodGet, "/api/notifications", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestNotificationFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/notifications/evaluate", "u1")
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res notify.Result
	decode(t, rec, &res)
	if res.Inserted != 1 {
		t.Fatalf("Inserted = %d, want 1 budget warning", res.Inserted)
	}

	rec = s.do(t, http.MethodPost, "/api/notifications/evaluate", "u1")
	decode(t, rec, &res)
	if res.Inserted != 0 || res.Duplicates != 1 {
		t.Errorf("second pass = %+v, want duplicate only", res)
	}

	var count map[string]int
	decode(t, s.do(t, http.MethodGet, "/api/notifications/unread-count", "u1"), &count)
	if count["unread"] != 1 {
		t.Errorf("unread = %d, want 1", count["unread"])
	}

	var list struct {
		Notifications []domain.Notification `json:"notifications"`
		Count         int                   `json:"count"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/notifications", "u1"), &list)
	if list.Count != 1 || list.Notifications[0].Priority != domain.PriorityHigh {
		t.Fatalf("list = %+v", list)
	}
	id := list.Notifications[0].ID

	if rec := s.do(t, http.MethodPost, "/api/notifications/"+id+"/read", "u1"); rec.Code != http.StatusOK {
		t.Errorf("read status = %d", rec.Code)
	}
	decode(t, s.do(t, http.MethodGet, "/api/notifications/unread-count", "u1"), &count)
	if count["unread"] != 0 {
		t.Errorf("unread after read = %d, want 0", count["unread"])
	}

	if rec := s.do(t, http.MethodPost, "/api/notifications/"+id+"/dismiss", "u2"); rec.Code != http.StatusNotFound {
		t.Errorf("dismiss by other user status = %d, want 404", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/notifications/"+id+"/dismiss", "u1"); rec.Code != http.StatusOK {
		t.Errorf("dismiss status = %d", rec.Code)
	}

	decode(t, s.do(t, http.MethodGet, "/api/notifications", "u1"), &list)
	if list.Count != 0 {
		t.Errorf("dismissed notification still listed: %+v", list)
	}
	decode(t, s.do(t, http.MethodGet, "/api/notifications?include_dismissed=true", "u1"), &list)
	if list.Count != 1 {
		t.Errorf("include_dismissed count = %d, want 1", list.Count)
	}
}

func TestMarkAllRead(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, _ = s.store.InsertNotification(ctx, "u1", domain.Candidate{Title: "a"})
	_, _ = s.store.InsertNotification(ctx, "u1", domain.Candidate{Title: "b"})

	var updated map[string]int
	decode(t, s.do(t, http.MethodPost, "/api/notifications/read-all", "u1"), &updated)
	if updated["updated"] != 2 {
		t.Errorf("updated = %d, want 2", updated["updated"])
	}
}

func TestEvaluateAsync(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/notifications/evaluate?async=true", "u1")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(s.publisher.published) != 1 {
		t.Fatalf("published %d jobs", len(s.publisher.published))
	}
	job := s.publisher.published[0]
	if job.UserID != "u1" || job.Trigger != jobs.TriggerManual {
		t.Errorf("job = %+v", job)
	}
}

func TestJobsScopedToUser(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_ = s.jobs.SaveJob(ctx, &jobs.EvaluateNotificationsJob{JobID: "mine", UserID: "u1", Status: jobs.JobStatusCompleted})
	_ = s.jobs.SaveJob(ctx, &jobs.EvaluateNotificationsJob{JobID: "theirs", UserID: "u2", Status: jobs.JobStatusCompleted})

	var list struct {
		Count int `json:"count"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/jobs", "u1"), &list)
	if list.Count != 1 {
		t.Errorf("count = %d, want 1", list.Count)
	}

	if rec := s.do(t, http.MethodGet, "/api/jobs/mine", "u1"); rec.Code != http.StatusOK {
		t.Errorf("own job status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/jobs/theirs", "u1"); rec.Code != http.StatusNotFound {
		t.Errorf("foreign job status = %d, want 404", rec.Code)
	}
}

func TestUnknownNotificationRoute(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(t, http.MethodGet, "/api/notifications/abc/explode", "u1"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec := s.do(t, http.MethodPost, "/api/notifications/a/b/read", "u1"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
