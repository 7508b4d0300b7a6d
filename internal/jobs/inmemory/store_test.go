package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/jobs"
)

func TestStore_SaveRequiresID(t *testing.T) {
	if err := NewStore().SaveJob(context.Background(), &jobs.EvaluateNotificationsJob{}); err == nil {
		t.Error("expected error for job without id")
	}
}

func TestStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	job := &jobs.EvaluateNotificationsJob{JobID: "j1", Status: jobs.JobStatusPending}
	_ = s.SaveJob(ctx, job)

	job.Status = jobs.JobStatusFailed
	got, _ := s.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusPending {
		t.Errorf("stored job changed through caller pointer: %s", got.Status)
	}

	got.Status = jobs.JobStatusCompleted
	again, _ := s.GetJob(ctx, "j1")
	if again.Status != jobs.JobStatusPending {
		t.Errorf("stored job changed through returned pointer: %s", again.Status)
	}
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	for i, j := range []jobs.EvaluateNotificationsJob{
		{JobID: "a", UserID: "u1", Status: jobs.JobStatusCompleted},
		{JobID: "b", UserID: "u2", Status: jobs.JobStatusFailed},
		{JobID: "c", UserID: "u1", Status: jobs.JobStatusPending},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_ = s.SaveJob(ctx, &j)
	}

	tests := []struct {
		name   string
		filter jobs.JobFilter
		want   []string
	}{
		{name: "all newest first", filter: jobs.JobFilter{}, want: []string{"c", "b", "a"}},
		{name: "by user", filter: jobs.JobFilter{UserID: "u1"}, want: []string{"c", "a"}},
		{name: "by status", filter: jobs.JobFilter{Status: jobs.JobStatusFailed}, want: []string{"b"}},
		{name: "paged", filter: jobs.JobFilter{Limit: 1, Offset: 1}, want: []string{"b"}},
		{name: "offset past end", filter: jobs.JobFilter{Offset: 5}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListJobs(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListJobs() error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d jobs, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].JobID != id {
					t.Errorf("job %d = %s, want %s", i, got[i].JobID, id)
				}
			}
		})
	}
}

func TestStore_UpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_ = s.SaveJob(ctx, &jobs.EvaluateNotificationsJob{JobID: "j1"})

	if err := s.UpdateJobStatus(ctx, "j1", jobs.JobStatusFailed, "boom"); err != nil {
		t.Fatalf("UpdateJobStatus() error: %v", err)
	}
	got, _ := s.GetJob(ctx, "j1")
	if got.Status != jobs.JobStatusFailed || got.Error != "boom" {
		t.Errorf("got %+v", got)
	}
	if err := s.UpdateJobStatus(ctx, "missing", jobs.JobStatusFailed, ""); err == nil {
		t.Error("expected error for unknown job")
	}
}
