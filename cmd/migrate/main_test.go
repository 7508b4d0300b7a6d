package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_ledger_tables.sql", true, 1, "create_ledger_tables"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.valid {
				t.Fatalf("valid = %v, want %v", ok, tt.valid)
			}
			if version != tt.version || name != tt.name {
				t.Errorf("got %d %q, want %d %q", version, name, tt.version, tt.name)
			}
		})
	}
}

func writeMigration(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "0002_second.sql", "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id INT64);")
	writeMigration(t, dir, "0001_first.sql", "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);")
	writeMigration(t, dir, "README.md", "ignored")

	migrations, err := readMigrations(dir, "proj", "ds")
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("migrations not sorted: %d, %d", migrations[0].Version, migrations[1].Version)
	}
	if !strings.Contains(migrations[0].SQL, "`proj.ds.a`") {
		t.Errorf("placeholders not substituted: %s", migrations[0].SQL)
	}

	// Checksums ignore the target dataset.
	other, err := readMigrations(dir, "proj2", "ds2")
	if err != nil {
		t.Fatal(err)
	}
	if other[0].Checksum != migrations[0].Checksum {
		t.Error("checksum should not depend on placeholder values")
	}
	if migrations[0].Checksum == migrations[1].Checksum {
		t.Error("different content should produce different checksums")
	}
}

func TestReadMigrationsDuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "0001_a.sql", "SELECT 1;")
	writeMigration(t, dir, "0001_b.sql", "SELECT 2;")

	if _, err := readMigrations(dir, "p", "d"); err == nil {
		t.Error("expected duplicate version error")
	}
}

func TestPendingAndDrift(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Name: "a", Checksum: "aaa"},
		{Version: 2, Name: "b", Checksum: "bbb"},
		{Version: 3, Name: "c", Checksum: "ccc"},
	}
	applied := []AppliedMigration{
		{Version: 1, Name: "a", Checksum: "aaa"},
		{Version: 2, Name: "b", Checksum: "old"},
	}

	todo := pending(migrations, applied)
	if len(todo) != 1 || todo[0].Version != 3 {
		t.Errorf("pending = %+v, want only version 3", todo)
	}

	drift := checksumDrift(migrations, applied)
	if len(drift) != 1 || drift[0].Version != 2 {
		t.Errorf("drift = %+v, want only version 2", drift)
	}
}

func TestRepositoryMigrationsParse(t *testing.T) {
	dir, err := findMigrationsDir("migrations/bigquery")
	if err != nil {
		t.Skipf("migrations not found: %v", err)
	}
	migrations, err := readMigrations(dir, "p", "d")
	if err != nil {
		t.Fatalf("readMigrations: %v", err)
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("migration %s has unsubstituted placeholders", m.Filename)
		}
	}
}
