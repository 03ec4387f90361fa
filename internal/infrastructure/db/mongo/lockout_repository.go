package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdesk/task-system/internal/core/ports"
)

const loginFailuresCollection = "login_failures"

// LockoutRepository implements ports.LockoutTracker with one document per
// identity holding the running failure count and the lockout end.
type LockoutRepository struct {
	coll   *mongo.Collection
	policy ports.LockoutPolicy
	now    func() time.Time
}

func NewLockoutRepository(db *mongo.Database, policy ports.LockoutPolicy) *LockoutRepository {
	return &LockoutRepository{coll: db.Collection(loginFailuresCollection), policy: policy, now: time.Now}
}

type loginFailureDoc struct {
	IdentityID  string    `bson:"_id"`
	Failures    int       `bson:"failures"`
	LockedUntil time.Time `bson:"locked_until,omitempty"`
}

func (r *LockoutRepository) LockedUntil(ctx context.Context, identityID string) (time.Time, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc loginFailureDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": identityID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read lockout: %w", err)
	}
	if doc.LockedUntil.IsZero() || !r.now().Before(doc.LockedUntil) {
		return time.Time{}, false, nil
	}
	return doc.LockedUntil.UTC(), true, nil
}

// RecordFailure increments the count with an upsert. Reaching the policy
// maximum locks the account and restarts the count.
func (r *LockoutRepository) RecordFailure(ctx context.Context, identityID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc loginFailureDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": identityID}, bson.M{"$inc": bson.M{"failures": 1}}, opts).Decode(&doc)
	if err != nil {
		return false, fmt.Errorf("record failure: %w", err)
	}
	if doc.Failures < r.policy.MaxFailedAttempts {
		return false, nil
	}

	until := r.now().Add(r.policy.Duration).UTC()
	if _, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": identityID},
		bson.M{"$set": bson.M{"failures": 0, "locked_until": until}},
	); err != nil {
		return false, fmt.Errorf("lock account: %w", err)
	}
	return true, nil
}

func (r *LockoutRepository) Reset(ctx context.Context, identityID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": identityID}); err != nil {
		return fmt.Errorf("reset lockout: %w", err)
	}
	return nil
}

var _ ports.LockoutTracker = (*LockoutRepository)(nil)
