package bigquery

import (
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
)

func TestRepositoryClock(t *testing.T) {
	fixed := time.Date(2024, 5, 17, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	ds := Dataset{ProjectID: "proj", DatasetID: "finance"}

	r := NewRepositoryWithClient(nil, ds, WithClock(func() time.Time { return fixed }))
	if got := r.now(); !got.Equal(fixed) {
		t.Errorf("now() = %v, want %v", got, fixed)
	}

	if def := NewRepositoryWithClient(nil, ds); def.now == nil {
		t.Error("default clock should be set")
	}
}

func TestInsertNotificationParams(t *testing.T) {
	createdAt := time.Date(2024, 5, 17, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	c := domain.Candidate{
		Type:          domain.NotificationBudgetWarning,
		Title:         "Groceries budget exceeded",
		ReferenceID:   "b1",
		ReferenceType: domain.ReferenceBudget,
		Priority:      domain.PriorityUrgent,
	}

	params := insertNotificationParams("n1", "u1", c, createdAt)

	values := map[string]interface{}{}
	for _, p := range params {
		values[p.Name] = p.Value
	}
	ts, ok := values["created_ts"].(time.Time)
	if !ok {
		t.Fatalf("created_ts = %#v, want time.Time", values["created_ts"])
	}
	if !ts.Equal(createdAt) || ts.Location() != time.UTC {
		t.Errorf("created_ts = %v, want %v in UTC", ts, createdAt)
	}
	if values["notification_id"] != "n1" || values["user_id"] != "u1" || values["reference_id"] != "b1" {
		t.Errorf("unexpected params: %v", values)
	}

	sql := insertNotificationSQL(Dataset{ProjectID: "proj", DatasetID: "finance"})
	for name := range values {
		if !strings.Contains(sql, "@"+name) {
			t.Errorf("SQL does not bind @%s", name)
		}
	}
}
