// Package database provides SQLite connection management and table initialization.
package database

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with initialization logic.
type DB struct {
	*sql.DB
	path string
	mu   sync.Mutex
}

// New creates a new database connection and initializes tables.
func New(dbPath string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better performance
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	// SQLite supports only one writer at a time. A single connection also means
	// a transaction started by Within owns the store until it finishes.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	db := &DB{
		DB:   sqlDB,
		path: dbPath,
	}

	if err := db.initTables(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return db, nil
}

// initTables creates the workouts and planned_sessions tables with indexes.
func (db *DB) initTables() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	plannedTableSQL := `
	CREATE TABLE IF NOT EXISTS planned_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		planned_date TEXT,
		session_type TEXT NOT NULL,
		target_duration_min INTEGER,
		target_distance_km REAL,
		target_pace TEXT,
		target_hr TEXT,
		target_rpe INTEGER,
		comments TEXT,
		session_number INTEGER,
		week INTEGER,
		created_at TEXT NOT NULL
	);`

	if _, err := db.Exec(plannedTableSQL); err != nil {
		return fmt.Errorf("failed to create planned_sessions table: %w", err)
	}

	// planned_session_id is a soft back-reference; deleting the plan keeps the workout.
	workoutsTableSQL := `
	CREATE TABLE IF NOT EXISTS workouts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		date TEXT,
		session_type TEXT NOT NULL,
		duration_sec INTEGER,
		distance_m REAL,
		avg_pace TEXT,
		avg_heart_rate INTEGER,
		perceived_exertion INTEGER,
		comments TEXT,
		planned_session_id INTEGER REFERENCES planned_sessions(id) ON DELETE SET NULL,
		session_number INTEGER,
		week INTEGER,
		created_at TEXT NOT NULL
	);`

	if _, err := db.Exec(workoutsTableSQL); err != nil {
		return fmt.Errorf("failed to create workouts table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_workouts_user_date ON workouts(user_id, date);",
		"CREATE INDEX IF NOT EXISTS idx_workouts_planned ON workouts(planned_session_id);",
		"CREATE INDEX IF NOT EXISTS idx_planned_user_date ON planned_sessions(user_id, planned_date);",
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
