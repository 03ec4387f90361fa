package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taskdesk/task-system/internal/core/ports"
)

// LockoutStore implements ports.LockoutTracker over the login_failures
// table.
type LockoutStore struct {
	db     *sql.DB
	policy ports.LockoutPolicy
	now    func() time.Time
}

func (s *LockoutStore) LockedUntil(ctx context.Context, identityID string) (time.Time, bool, error) {
	var lockedUntil int64
	err := s.db.QueryRowContext(ctx, `SELECT locked_until FROM login_failures WHERE identity_id = ?`, identityID).Scan(&lockedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read lockout: %w", err)
	}
	until := fromMillis(lockedUntil)
	if lockedUntil == 0 || !s.now().Before(until) {
		return time.Time{}, false, nil
	}
	return until, true, nil
}

// RecordFailure increments the failure count. Reaching the policy maximum
// locks the account and restarts the count.
func (s *LockoutStore) RecordFailure(ctx context.Context, identityID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin record failure: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var failures int
	err = tx.QueryRowContext(ctx, `
INSERT INTO login_failures (identity_id, failures, locked_until) VALUES (?, 1, 0)
ON CONFLICT (identity_id) DO UPDATE SET failures = failures + 1
RETURNING failures`, identityID).Scan(&failures)
	if err != nil {
		return false, fmt.Errorf("record failure: %w", err)
	}

	locked := failures >= s.policy.MaxFailedAttempts
	if locked {
		until := s.now().Add(s.policy.Duration)
		if _, err := tx.ExecContext(ctx,
			`UPDATE login_failures SET failures = 0, locked_until = ? WHERE identity_id = ?`,
			toMillis(until), identityID,
		); err != nil {
			return false, fmt.Errorf("lock account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit record failure: %w", err)
	}
	return locked, nil
}

func (s *LockoutStore) Reset(ctx context.Context, identityID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM login_failures WHERE identity_id = ?`, identityID); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	return nil
}
