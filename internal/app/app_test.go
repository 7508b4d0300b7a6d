package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dvloznov/finance-insights/internal/config"
	"github.com/dvloznov/finance-insights/internal/logger"
)

const snapshot = `{
  "budgets": [
    {"id": "b1", "user_id": "u1", "category": "Food", "allocated": 200, "spent": 190},
    {"id": "b2", "user_id": "u2", "category": "Fun", "allocated": 50, "spent": 10}
  ]
}`

func TestOpenMemoryWithSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(snapshot), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Store.SnapshotFile = path

	ctx := context.Background()
	a, err := Open(ctx, cfg, logger.NewWithWriter(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	budgets, err := a.Repo.ListBudgets(ctx, "u1")
	if err != nil || len(budgets) != 1 {
		t.Fatalf("ListBudgets = %v, %v", budgets, err)
	}

	users, err := a.Users().ListUserIDs(ctx)
	if err != nil {
		t.Fatalf("ListUserIDs: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"u1", "u2"}) {
		t.Errorf("users = %v, want [u1 u2]", users)
	}

	res, err := a.Notify.Run(ctx, "u1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Inserted != 1 {
		t.Errorf("Inserted = %d, want 1 budget warning", res.Inserted)
	}
}

func TestUsersPrefersConfiguredList(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Users = []string{"alice"}

	a, err := Open(context.Background(), cfg, logger.NewWithWriter(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	users, _ := a.Users().ListUserIDs(context.Background())
	if !reflect.DeepEqual(users, []string{"alice"}) {
		t.Errorf("users = %v", users)
	}
}

func TestOpenRepositoryErrors(t *testing.T) {
	log := logger.NewWithWriter(&bytes.Buffer{})

	cfg := config.Default()
	cfg.Store.Backend = "postgres"
	if _, err := OpenRepository(context.Background(), cfg, log); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg = config.Default()
	cfg.Store.SnapshotFile = filepath.Join(t.TempDir(), "missing.json")
	if _, err := OpenRepository(context.Background(), cfg, log); err == nil {
		t.Error("expected error for missing snapshot")
	}
}
