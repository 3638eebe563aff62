package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNew_CreatesTablesAndIndexes(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "runtracker-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	db, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"workouts", "planned_sessions"} {
		var exists int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&exists)
		if err != nil {
			t.Fatalf("failed to check table %s: %v", table, err)
		}
		if exists != 1 {
			t.Errorf("table %s was not created", table)
		}
	}

	indexes := []string{"idx_workouts_user_date", "idx_workouts_planned", "idx_planned_user_date"}
	for _, idx := range indexes {
		var exists int
		err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&exists)
		if err != nil {
			t.Fatalf("failed to check index %s: %v", idx, err)
		}
		if exists != 1 {
			t.Errorf("index %s was not created", idx)
		}
	}
}

func TestNew_IdempotentTableCreation(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "runtracker-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	db1, err := New(dbPath)
	if err != nil {
		t.Fatalf("first creation failed: %v", err)
	}
	db1.Close()

	db2, err := New(dbPath)
	if err != nil {
		t.Fatalf("second creation failed: %v", err)
	}
	db2.Close()

	if db2.Path() != dbPath {
		t.Errorf("expected path %s, got %s", dbPath, db2.Path())
	}
}

func TestWithin_RollsBackOnError(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "runtracker-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	db, err := New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	boom := errors.New("boom")

	err = db.Within(ctx, func(ctx context.Context) error {
		_, err := db.Executor(ctx).ExecContext(ctx,
			`INSERT INTO planned_sessions (user_id, session_type, created_at) VALUES ('u1', 'easy', '2024-01-01T00:00:00Z')`)
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		// Nested calls share the outer transaction.
		return db.Within(ctx, func(ctx context.Context) error { return boom })
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int
	if err := db.Executor(ctx).QueryRowContext(ctx, "SELECT COUNT(*) FROM planned_sessions").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}

	err = db.Within(ctx, func(ctx context.Context) error {
		_, err := db.Executor(ctx).ExecContext(ctx,
			`INSERT INTO planned_sessions (user_id, session_type, created_at) VALUES ('u1', 'easy', '2024-01-01T00:00:00Z')`)
		return err
	})
	if err != nil {
		t.Fatalf("commit path failed: %v", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM planned_sessions").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 committed row, got %d", count)
	}
}
