package domain

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// UnknownUserName is shown in task views when the assignee or author no
// longer resolves.
const UnknownUserName = "Unknown User"

// Identity models a registered principal.
type Identity struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Roles          []string  `json:"roles"`
	EmailConfirmed bool      `json:"emailConfirmed"`
	CreatedAt      time.Time `json:"createdAt"`
}

// HasRole reports whether the identity holds role.
func (i *Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// UserSummary is the public projection of an identity.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Summary strips everything but id, username and email.
func (i *Identity) Summary() UserSummary {
	return UserSummary{ID: i.ID, Username: i.Username, Email: i.Email}
}

// NormalizeKey folds s for case-insensitive uniqueness of usernames and
// emails. cases.Caser is stateful, so a new one is built per call.
func NormalizeKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
