package ports

import (
	"context"
	"time"
)

// LockoutPolicy configures when repeated failed logins lock an account.
type LockoutPolicy struct {
	MaxFailedAttempts int
	Duration          time.Duration
}

// DefaultLockoutPolicy locks for 5 minutes after 5 consecutive failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxFailedAttempts: 5, Duration: 5 * time.Minute}
}

// LockoutTracker counts consecutive failed password checks per identity.
type LockoutTracker interface {
	// LockedUntil reports the end of an active lockout, if any.
	LockedUntil(ctx context.Context, identityID string) (time.Time, bool, error)
	// RecordFailure registers one failure and reports whether the account is
	// now locked.
	RecordFailure(ctx context.Context, identityID string) (locked bool, err error)
	// Reset clears the failure count after a successful check.
	Reset(ctx context.Context, identityID string) error
}
