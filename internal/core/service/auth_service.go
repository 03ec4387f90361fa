package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

const (
	msgRegistered = "User registered successfully!"
	msgLoggedIn   = "Login successful!"
)

// TokenIssuer mints bearer tokens.
type TokenIssuer interface {
	Issue(identity *domain.Identity, roles []string) (string, error)
}

// AuthService implements registration and login.
type AuthService struct {
	credentials *CredentialStore
	tokens      TokenIssuer
	log         zerolog.Logger
}

func NewAuthService(credentials *CredentialStore, tokens TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{credentials: credentials, tokens: tokens, log: log}
}

// Register creates a User identity with a confirmed email and returns a
// token for it.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (res *ports.AuthResult, err error) {
	ctx, span := startSpan(ctx, "AuthService.Register")
	defer func() { endSpan(span, err) }()

	identity, err := s.credentials.Create(ctx, NewIdentity{
		Username:       in.Username,
		Email:          in.Email,
		Roles:          []string{domain.RoleUser},
		EmailConfirmed: true,
	}, in.Password)
	if err != nil {
		s.log.Warn().Str("reason", domain.ReasonOf(err).String()).Str("username", in.Username).Msg("registration failed")
		return nil, err
	}

	s.log.Info().Str("identity_id", identity.ID).Str("username", identity.Username).Msg("user registered")
	return s.issue(identity, msgRegistered)
}

// Login resolves the account by username, then by email, and checks the
// password. An unknown account and a wrong password yield the same error.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (res *ports.AuthResult, err error) {
	ctx, span := startSpan(ctx, "AuthService.Login")
	defer func() { endSpan(span, err) }()

	identity, err := s.resolve(ctx, in.UsernameOrEmail)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.credentials.BurnVerify(in.Password)
		s.log.Warn().Msg("login failed: unknown account")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.credentials.CheckPassword(ctx, identity, in.Password); err != nil {
		s.log.Warn().Str("identity_id", identity.ID).Str("reason", domain.ReasonOf(err).String()).Msg("login failed")
		return nil, err
	}

	s.log.Info().Str("identity_id", identity.ID).Msg("user logged in")
	return s.issue(identity, msgLoggedIn)
}

func (s *AuthService) resolve(ctx context.Context, usernameOrEmail string) (*domain.Identity, error) {
	identity, err := s.credentials.FindByUsername(ctx, usernameOrEmail)
	if !errors.Is(err, domain.ErrUserNotFound) {
		return identity, err
	}
	return s.credentials.FindByEmail(ctx, usernameOrEmail)
}

func (s *AuthService) issue(identity *domain.Identity, message string) (*ports.AuthResult, error) {
	roles := s.credentials.RolesOf(identity)
	tok, err := s.tokens.Issue(identity, roles)
	if err != nil {
		s.log.Error().Err(err).Str("identity_id", identity.ID).Msg("token issuance failed")
		return nil, domain.ErrDatabase
	}
	return &ports.AuthResult{
		IsSuccess:  true,
		Message:    message,
		Token:      tok,
		IdentityID: identity.ID,
		Username:   identity.Username,
		Email:      identity.Email,
		Roles:      roles,
	}, nil
}
