package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/password"
	"github.com/taskdesk/task-system/internal/core/ports"
)

// PasswordHasher produces and verifies salted password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// NewIdentity describes an identity to create.
type NewIdentity struct {
	Username       string
	Email          string
	Roles          []string
	EmailConfirmed bool
}

// CredentialStore owns identities and their credentials: lookups, creation
// under the password policy, password verification and lockout.
type CredentialStore struct {
	repo    ports.IdentityRepository
	policy  password.Policy
	hasher  PasswordHasher
	lockout ports.LockoutTracker
	log     zerolog.Logger
	now     func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentialStore wires a CredentialStore. lockout may be nil to disable
// account lockout.
func NewCredentialStore(
	repo ports.IdentityRepository,
	policy password.Policy,
	hasher PasswordHasher,
	lockout ports.LockoutTracker,
	log zerolog.Logger,
) *CredentialStore {
	return &CredentialStore{
		repo:    repo,
		policy:  policy,
		hasher:  hasher,
		lockout: lockout,
		log:     log,
		now:     time.Now,
	}
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrUserNotFound
	}
	identity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, normalize(s.log, "find identity by id", err)
	}
	return identity, nil
}

func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	key := domain.NormalizeKey(email)
	if key == "" {
		return nil, domain.ErrUserNotFound
	}
	identity, err := s.repo.FindByNormalizedEmail(ctx, key)
	if err != nil {
		return nil, normalize(s.log, "find identity by email", err)
	}
	return identity, nil
}

func (s *CredentialStore) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	key := domain.NormalizeKey(username)
	if key == "" {
		return nil, domain.ErrUserNotFound
	}
	identity, err := s.repo.FindByNormalizedUsername(ctx, key)
	if err != nil {
		return nil, normalize(s.log, "find identity by username", err)
	}
	return identity, nil
}

// Create validates uniqueness and the password policy, hashes plaintext and
// persists the identity. Without roles the identity gets RoleUser.
func (s *CredentialStore) Create(ctx context.Context, in NewIdentity, plaintext string) (*domain.Identity, error) {
	if err := s.ensureFree(ctx, s.FindByEmail, in.Email, domain.ErrDuplicateEmail); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, s.FindByUsername, in.Username, domain.ErrDuplicateUsername); err != nil {
		return nil, err
	}

	if violations := s.policy.Validate(plaintext); len(violations) > 0 {
		return nil, domain.ErrWeakPassword.WithDetails(password.Messages(violations)...)
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, normalize(s.log, "hash password", err)
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{domain.RoleUser}
	}

	identity := &domain.Identity{
		ID:             uuid.NewString(),
		Username:       strings.TrimSpace(in.Username),
		Email:          strings.TrimSpace(in.Email),
		PasswordHash:   hash,
		Roles:          append([]string(nil), roles...),
		EmailConfirmed: in.EmailConfirmed,
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
	}

	// The unique indexes behind repo.Create close the race between the
	// lookups above and this insert.
	if err := s.repo.Create(ctx, identity); err != nil {
		return nil, normalize(s.log, "create identity", err)
	}
	return identity, nil
}

func (s *CredentialStore) ensureFree(
	ctx context.Context,
	find func(context.Context, string) (*domain.Identity, error),
	value string,
	taken error,
) error {
	_, err := find(ctx, value)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// VerifyPassword reports whether plaintext matches the identity's hash. It
// does not touch lockout state.
func (s *CredentialStore) VerifyPassword(identity *domain.Identity, plaintext string) bool {
	if identity == nil || identity.PasswordHash == "" {
		return false
	}
	return s.hasher.Verify(plaintext, identity.PasswordHash)
}

// CheckPassword verifies plaintext under the lockout policy. It returns
// domain.ErrAccountLocked while a lockout is active or when this failure
// reaches the threshold, and domain.ErrInvalidCredentials for a mismatch.
func (s *CredentialStore) CheckPassword(ctx context.Context, identity *domain.Identity, plaintext string) error {
	if s.lockout != nil {
		until, locked, err := s.lockout.LockedUntil(ctx, identity.ID)
		if err != nil {
			return normalize(s.log, "read lockout", err)
		}
		if locked {
			s.log.Warn().Str("identity_id", identity.ID).Time("locked_until", until).Msg("login attempt on locked account")
			return domain.ErrAccountLocked
		}
	}

	if s.VerifyPassword(identity, plaintext) {
		if s.lockout != nil {
			if err := s.lockout.Reset(ctx, identity.ID); err != nil {
				s.log.Warn().Err(err).Str("identity_id", identity.ID).Msg("failed to reset lockout counter")
			}
		}
		return nil
	}

	if s.lockout != nil {
		locked, err := s.lockout.RecordFailure(ctx, identity.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("identity_id", identity.ID).Msg("failed to record login failure")
		} else if locked {
			s.log.Warn().Str("identity_id", identity.ID).Msg("account locked after repeated failures")
			return domain.ErrAccountLocked
		}
	}
	return domain.ErrInvalidCredentials
}

// BurnVerify runs one hash comparison against a throwaway hash so that a
// lookup miss costs about as much as a wrong password.
func (s *CredentialStore) BurnVerify(plaintext string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(plaintext, s.dummyHash)
	}
}

// RolesOf returns a copy of the identity's roles.
func (s *CredentialStore) RolesOf(identity *domain.Identity) []string {
	if identity == nil {
		return nil
	}
	return append([]string(nil), identity.Roles...)
}

// AddRole grants role to identity. Granting a held role is a no-op.
func (s *CredentialStore) AddRole(ctx context.Context, identity *domain.Identity, role string) error {
	if identity == nil {
		return domain.ErrUserNotFound
	}
	if strings.TrimSpace(role) == "" {
		return fmt.Errorf("add role: role is required")
	}
	if identity.HasRole(role) {
		return nil
	}
	if err := s.repo.AddRole(ctx, identity.ID, role); err != nil {
		return normalize(s.log, "add role", err)
	}
	identity.Roles = append(identity.Roles, role)
	return nil
}

// ListAssignable returns every identity that does not hold RoleAdmin.
func (s *CredentialStore) ListAssignable(ctx context.Context) ([]*domain.Identity, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, normalize(s.log, "list identities", err)
	}
	out := make([]*domain.Identity, 0, len(all))
	for _, identity := range all {
		if !identity.HasRole(domain.RoleAdmin) {
			out = append(out, identity)
		}
	}
	return out, nil
}
