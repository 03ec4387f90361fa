package ports

import (
	"context"
)

// RegisterInput is the self-service registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

// AuthResult is the envelope returned by registration and login.
type AuthResult struct {
	IsSuccess  bool     `json:"isSuccess"`
	Message    string   `json:"message"`
	Token      string   `json:"token,omitempty"`
	IdentityID string   `json:"identityId,omitempty"`
	Username   string   `json:"username,omitempty"`
	Email      string   `json:"email,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// OK reports success. A result without a token is a failure whatever
// IsSuccess says.
func (r *AuthResult) OK() bool {
	return r != nil && r.IsSuccess && r.Token != ""
}

// AuthService implements registration and login. On failure the returned
// error is a *domain.Error whose reason and message describe the outcome.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
}
