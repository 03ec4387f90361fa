package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdesk/task-system/internal/core/domain"
)

const (
	identitiesCollection = "identities"

	indexNormalizedEmail    = "normalized_email_unique"
	indexNormalizedUsername = "normalized_username_unique"
)

// IdentityRepository implements ports.IdentityRepository using MongoDB.
type IdentityRepository struct {
	coll *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{coll: db.Collection(identitiesCollection)}
}

type identityDoc struct {
	ID                 string    `bson:"_id"`
	Username           string    `bson:"username"`
	NormalizedUsername string    `bson:"normalized_username"`
	Email              string    `bson:"email"`
	NormalizedEmail    string    `bson:"normalized_email"`
	PasswordHash       string    `bson:"password_hash"`
	Roles              []string  `bson:"roles"`
	EmailConfirmed     bool      `bson:"email_confirmed"`
	CreatedAt          time.Time `bson:"created_at"`
}

func (d identityDoc) toDomain() *domain.Identity {
	return &domain.Identity{
		ID:             d.ID,
		Username:       d.Username,
		Email:          d.Email,
		PasswordHash:   d.PasswordHash,
		Roles:          d.Roles,
		EmailConfirmed: d.EmailConfirmed,
		CreatedAt:      d.CreatedAt.UTC(),
	}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	roles := identity.Roles
	if roles == nil {
		roles = []string{}
	}
	doc := identityDoc{
		ID:                 identity.ID,
		Username:           identity.Username,
		NormalizedUsername: domain.NormalizeKey(identity.Username),
		Email:              identity.Email,
		NormalizedEmail:    domain.NormalizeKey(identity.Email),
		PasswordHash:       identity.PasswordHash,
		Roles:              roles,
		EmailConfirmed:     identity.EmailConfirmed,
		CreatedAt:          identity.CreatedAt.UTC(),
	}

	_, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return duplicateKeyError(err)
	}
	return nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *IdentityRepository) FindByNormalizedEmail(ctx context.Context, normalizedEmail string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"normalized_email": normalizedEmail})
}

func (r *IdentityRepository) FindByNormalizedUsername(ctx context.Context, normalizedUsername string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"normalized_username": normalizedUsername})
}

func (r *IdentityRepository) List(ctx context.Context) ([]*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	var docs []identityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode identities: %w", err)
	}

	out := make([]*domain.Identity, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// AddRole appends role with $addToSet, so an already held role is a no-op.
func (r *IdentityRepository) AddRole(ctx context.Context, id, role string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$addToSet": bson.M{"roles": role}})
	if err != nil {
		return fmt.Errorf("add identity role: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates the unique indexes on the normalized keys.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "normalized_email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexNormalizedEmail),
		},
		{
			Keys:    bson.D{{Key: "normalized_username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(indexNormalizedUsername),
		},
	}
	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc identityDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return doc.toDomain(), nil
}

// duplicateKeyError maps an E11000 failure to the key it violated.
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert identity: %w", err)
	}
	switch msg := err.Error(); {
	case strings.Contains(msg, indexNormalizedEmail):
		return domain.ErrDuplicateEmail
	case strings.Contains(msg, indexNormalizedUsername):
		return domain.ErrDuplicateUsername
	}
	return fmt.Errorf("insert identity: %w", err)
}
