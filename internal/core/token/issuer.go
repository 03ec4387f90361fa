// Package token mints and validates the HS256 bearer tokens that carry an
// identity and its roles between requests.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// Lifetime is fixed; tokens cannot be refreshed or revoked before expiry.
const Lifetime = 60 * time.Minute

var (
	// ErrMisconfiguredSigning means the secret, issuer or audience is missing.
	ErrMisconfiguredSigning = errors.New("token: signing secret, issuer and audience are required")
	// ErrInvalidToken is returned for any token that fails validation.
	ErrInvalidToken = domain.NewError(domain.ReasonUnauthenticated, "invalid or expired token")
)

// Config carries the signing parameters loaded at startup.
type Config struct {
	Secret   string
	Issuer   string
	Audience string
}

// claims is the wire shape of the token payload. role decodes from either a
// single string or an array.
type claims struct {
	IdentityID string           `json:"nameid"`
	Username   string           `json:"unique_name"`
	Email      string           `json:"email"`
	Roles      jwt.ClaimStrings `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for iat, exp and validation.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer validates cfg and returns a ready Issuer.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" || strings.TrimSpace(cfg.Issuer) == "" || strings.TrimSpace(cfg.Audience) == "" {
		return nil, ErrMisconfiguredSigning
	}
	i := &Issuer{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue mints a token for identity carrying one role claim per role.
func (i *Issuer) Issue(identity *domain.Identity, roles []string) (string, error) {
	if identity == nil || identity.ID == "" {
		return "", fmt.Errorf("token: identity id is required")
	}
	now := i.now().UTC()
	c := claims{
		IdentityID: identity.ID,
		Username:   identity.Username,
		Email:      identity.Email,
		Roles:      jwt.ClaimStrings(append([]string(nil), roles...)),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.ID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(Lifetime)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Validate checks signature, issuer, audience and expiry and returns the
// decoded claims. Every failure is reported as ErrInvalidToken.
func (i *Issuer) Validate(raw string) (*domain.Claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	identityID := c.IdentityID
	if identityID == "" {
		identityID = c.Subject
	}
	if identityID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	out := &domain.Claims{
		IdentityID: identityID,
		Username:   c.Username,
		Email:      c.Email,
		Roles:      []string(c.Roles),
		TokenID:    c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}
