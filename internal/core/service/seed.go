package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// AdminAccount is the bootstrap administrator created at startup.
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// SeedAdmin creates the bootstrap administrator unless an identity with its
// email already exists. An existing identity is granted RoleAdmin if it
// lacks it.
func SeedAdmin(ctx context.Context, credentials *CredentialStore, account AdminAccount, log zerolog.Logger) error {
	existing, err := credentials.FindByEmail(ctx, account.Email)
	switch {
	case err == nil:
		if err := credentials.AddRole(ctx, existing, domain.RoleAdmin); err != nil {
			return err
		}
		log.Debug().Str("email", account.Email).Msg("admin account already present")
		return nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return err
	}

	identity, err := credentials.Create(ctx, NewIdentity{
		Username:       account.Username,
		Email:          account.Email,
		Roles:          []string{domain.RoleAdmin},
		EmailConfirmed: true,
	}, account.Password)
	if err != nil {
		return err
	}

	log.Info().Str("identity_id", identity.ID).Str("username", identity.Username).Msg("admin account seeded")
	return nil
}
