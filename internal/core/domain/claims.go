package domain

import (
	"slices"
	"time"
)

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	IdentityID string
	Username   string
	Email      string
	Roles      []string
	TokenID    string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// HasRole reports whether the claims carry role.
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Roles, role)
}

// Authenticated reports whether c identifies a principal.
func (c *Claims) Authenticated() bool {
	return c != nil && c.IdentityID != ""
}
