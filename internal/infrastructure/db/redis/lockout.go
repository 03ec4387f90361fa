package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskdesk/task-system/internal/core/ports"
)

// LockoutTracker counts failed logins in Redis.
// Key format: lockout:fail:<identity_id> holds the running count and
// lockout:until:<identity_id> holds the lockout end in unix milliseconds.
// Both keys expire on their own.
type LockoutTracker struct {
	client *redis.Client
	policy ports.LockoutPolicy
	now    func() time.Time
}

// NewLockoutTracker creates a LockoutTracker wrapping the given Redis client.
func NewLockoutTracker(client *redis.Client, policy ports.LockoutPolicy) *LockoutTracker {
	return &LockoutTracker{client: client, policy: policy, now: time.Now}
}

func (l *LockoutTracker) LockedUntil(ctx context.Context, identityID string) (time.Time, bool, error) {
	raw, err := l.client.Get(ctx, untilKey(identityID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("lockout check: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("lockout value %q: %w", raw, err)
	}
	until := time.UnixMilli(ms).UTC()
	if !l.now().Before(until) {
		return time.Time{}, false, nil
	}
	return until, true, nil
}

// RecordFailure increments the failure count. Reaching the policy maximum
// sets the lockout key and clears the count.
func (l *LockoutTracker) RecordFailure(ctx context.Context, identityID string) (bool, error) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, failKey(identityID))
	pipe.Expire(ctx, failKey(identityID), l.policy.Duration)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("lockout record: %w", err)
	}

	if incr.Val() < int64(l.policy.MaxFailedAttempts) {
		return false, nil
	}

	until := l.now().Add(l.policy.Duration)
	lock := l.client.TxPipeline()
	lock.Set(ctx, untilKey(identityID), strconv.FormatInt(until.UnixMilli(), 10), l.policy.Duration)
	lock.Del(ctx, failKey(identityID))
	if _, err := lock.Exec(ctx); err != nil {
		return false, fmt.Errorf("lockout lock: %w", err)
	}
	return true, nil
}

func (l *LockoutTracker) Reset(ctx context.Context, identityID string) error {
	if err := l.client.Del(ctx, failKey(identityID), untilKey(identityID)).Err(); err != nil {
		return fmt.Errorf("lockout reset: %w", err)
	}
	return nil
}

func failKey(identityID string) string {
	return "lockout:fail:" + identityID
}

func untilKey(identityID string) string {
	return "lockout:until:" + identityID
}

var _ ports.LockoutTracker = (*LockoutTracker)(nil)
