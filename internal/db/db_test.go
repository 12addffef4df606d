package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()

	database, err := New(path, nil)
	if err != nil {
		t.Fatalf("New(%s) error: %v", path, err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func tableExists(t *testing.T, d *DB, table string) bool {
	t.Helper()

	var name string
	err := d.Conn().QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
	).Scan(&name)
	return err == nil
}

func TestNew_AppliesSchema(t *testing.T) {
	database := openTestDB(t, filepath.Join(t.TempDir(), "agent.db"))

	for _, table := range []string{"export_jobs", "agent_config", "_migrations"} {
		if !tableExists(t, database, table) {
			t.Errorf("table %s missing after New", table)
		}
	}
}

func TestNew_WALEnabled(t *testing.T) {
	database := openTestDB(t, filepath.Join(t.TempDir(), "agent.db"))

	var mode string
	if err := database.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode query error: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestNew_MigrationsRecordedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.db")

	first := openTestDB(t, path)
	first.Close()

	// Reopening must not re-apply or re-record anything.
	second := openTestDB(t, path)

	var count int
	if err := second.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("ledger count error: %v", err)
	}
	if count != 2 {
		t.Errorf("ledger rows = %d, want 2", count)
	}
}

func TestNew_FailsInterruptedExports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.db")

	first := openTestDB(t, path)
	_, err := first.Conn().Exec(`
		INSERT INTO export_jobs (id, status, progress, request_json, created_at, updated_at)
		VALUES ('orphan', 'running', 40, '{}', datetime('now'), datetime('now'))
	`)
	if err != nil {
		t.Fatalf("seed running job error: %v", err)
	}
	first.Close()

	second := openTestDB(t, path)

	var status, errMsg string
	err = second.Conn().QueryRow(
		`SELECT status, error FROM export_jobs WHERE id = 'orphan'`,
	).Scan(&status, &errMsg)
	if err != nil {
		t.Fatalf("read orphan job error: %v", err)
	}
	if status != "failed" {
		t.Errorf("status = %q, want failed", status)
	}
	if errMsg != "interrupted by restart" {
		t.Errorf("error = %q, want 'interrupted by restart'", errMsg)
	}
}

func TestNew_PendingJobsUntouchedOnRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.db")

	first := openTestDB(t, path)
	_, err := first.Conn().Exec(`
		INSERT INTO export_jobs (id, status, progress, request_json, created_at, updated_at)
		VALUES ('queued', 'pending', 0, '{}', datetime('now'), datetime('now'))
	`)
	if err != nil {
		t.Fatalf("seed pending job error: %v", err)
	}
	first.Close()

	second := openTestDB(t, path)

	var status string
	if err := second.Conn().QueryRow(
		`SELECT status FROM export_jobs WHERE id = 'queued'`,
	).Scan(&status); err != nil {
		t.Fatalf("read pending job error: %v", err)
	}
	if status != "pending" {
		t.Errorf("status = %q, want pending (restart must only touch running jobs)", status)
	}
}
