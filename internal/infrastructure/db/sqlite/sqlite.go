// Package sqlite provides the SQLite-backed storage for identities, tasks,
// comments, notes and login failures.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/taskdesk/task-system/internal/core/ports"
	"github.com/taskdesk/task-system/internal/infrastructure/db/sqlite/migrations"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Store owns the SQLite handle. The repositories it hands out share it.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database file at path and applies the bundled migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: storage path is required")
	}

	dsn := "file:" + filepath.Clean(path) + "?" + pragmas
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) Identities() *IdentityStore { return &IdentityStore{db: s.sqlDB} }

func (s *Store) Tasks() *TaskStore { return &TaskStore{db: s.sqlDB} }

func (s *Store) Notes() *NoteStore { return &NoteStore{db: s.sqlDB} }

// Lockout returns a login failure tracker persisted alongside identities.
func (s *Store) Lockout(policy ports.LockoutPolicy) *LockoutStore {
	return &LockoutStore{db: s.sqlDB, policy: policy, now: time.Now}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, false
	}
	return sqliteErr.Code(), true
}

// isUniqueViolation reports a UNIQUE failure, optionally on a specific
// table.column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	if column != "" && !strings.Contains(message, column) {
		return false
	}
	if code, ok := sqliteCode(err); ok {
		return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(message, "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if code, ok := sqliteCode(err); ok {
		return code == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var (
	_ ports.IdentityRepository = (*IdentityStore)(nil)
	_ ports.TaskRepository     = (*TaskStore)(nil)
	_ ports.NoteRepository     = (*NoteStore)(nil)
	_ ports.LockoutTracker     = (*LockoutStore)(nil)
)
