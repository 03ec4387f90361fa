package ports

import (
	"context"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// IdentityRepository persists identities. Lookups by username and email use
// the normalized key (domain.NormalizeKey); implementations enforce
// uniqueness of both keys at the storage level and report violations as
// domain.ErrDuplicateEmail or domain.ErrDuplicateUsername.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
	FindByNormalizedEmail(ctx context.Context, normalizedEmail string) (*domain.Identity, error)
	FindByNormalizedUsername(ctx context.Context, normalizedUsername string) (*domain.Identity, error)
	// List returns all identities ordered by username.
	List(ctx context.Context) ([]*domain.Identity, error)
	AddRole(ctx context.Context, id, role string) error
}
