package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// IdentityStore implements ports.IdentityRepository.
type IdentityStore struct {
	db *sql.DB
}

const identityColumns = `id, username, email, password_hash, email_confirmed, created_at`

func (s *IdentityStore) Create(ctx context.Context, identity *domain.Identity) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create identity: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO identities (id, username, normalized_username, email, normalized_email, password_hash, email_confirmed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		identity.ID,
		identity.Username,
		domain.NormalizeKey(identity.Username),
		identity.Email,
		domain.NormalizeKey(identity.Email),
		identity.PasswordHash,
		identity.EmailConfirmed,
		toMillis(identity.CreatedAt),
	)
	switch {
	case isUniqueViolation(err, "identities.normalized_email"):
		return domain.ErrDuplicateEmail
	case isUniqueViolation(err, "identities.normalized_username"):
		return domain.ErrDuplicateUsername
	case err != nil:
		return fmt.Errorf("insert identity: %w", err)
	}

	for _, role := range identity.Roles {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO identity_roles (identity_id, role) VALUES (?, ?)`, identity.ID, role); err != nil {
			return fmt.Errorf("insert identity role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create identity: %w", err)
	}
	return nil
}

func (s *IdentityStore) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	return s.findOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
}

func (s *IdentityStore) FindByNormalizedEmail(ctx context.Context, normalizedEmail string) (*domain.Identity, error) {
	return s.findOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE normalized_email = ?`, normalizedEmail)
}

func (s *IdentityStore) FindByNormalizedUsername(ctx context.Context, normalizedUsername string) (*domain.Identity, error) {
	return s.findOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE normalized_username = ?`, normalizedUsername)
}

func (s *IdentityStore) List(ctx context.Context) ([]*domain.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var out []*domain.Identity
	byID := make(map[string]*domain.Identity)
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, identity)
		byID[identity.ID] = identity
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("close identities: %w", err)
	}

	roleRows, err := s.db.QueryContext(ctx, `SELECT identity_id, role FROM identity_roles ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list identity roles: %w", err)
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var id, role string
		if err := roleRows.Scan(&id, &role); err != nil {
			return nil, fmt.Errorf("scan identity role: %w", err)
		}
		if identity, ok := byID[id]; ok {
			identity.Roles = append(identity.Roles, role)
		}
	}
	if err := roleRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity roles: %w", err)
	}
	return out, nil
}

func (s *IdentityStore) AddRole(ctx context.Context, id, role string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO identity_roles (identity_id, role) VALUES (?, ?)`, id, role)
	if isForeignKeyViolation(err) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("add identity role: %w", err)
	}
	return nil
}

func (s *IdentityStore) findOne(ctx context.Context, query string, arg string) (*domain.Identity, error) {
	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}

	roles, err := s.roles(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	identity.Roles = roles
	return identity, nil
}

func (s *IdentityStore) roles(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role FROM identity_roles WHERE identity_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("query identity roles: %w", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan identity role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row scanner) (*domain.Identity, error) {
	var (
		identity  domain.Identity
		createdAt int64
	)
	if err := row.Scan(
		&identity.ID,
		&identity.Username,
		&identity.Email,
		&identity.PasswordHash,
		&identity.EmailConfirmed,
		&createdAt,
	); err != nil {
		return nil, err
	}
	identity.CreatedAt = fromMillis(createdAt)
	return &identity, nil
}
