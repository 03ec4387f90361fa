// Package authz decides whether a caller may perform an action. Decisions
// are pure functions of the caller's claims and a requirement; resource
// owners must be resolved by the caller beforehand.
package authz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// Requirement is one of RequireRole, RequireAnyRole or RequireOwnerOrRole.
type Requirement interface {
	satisfiedBy(c *domain.Claims) bool
	String() string
}

type requireRole struct{ role string }

func (r requireRole) satisfiedBy(c *domain.Claims) bool { return c.HasRole(r.role) }
func (r requireRole) String() string                    { return "role " + r.role }

type requireAnyRole struct{ roles []string }

func (r requireAnyRole) satisfiedBy(c *domain.Claims) bool {
	return slices.ContainsFunc(r.roles, c.HasRole)
}

func (r requireAnyRole) String() string { return "any of " + strings.Join(r.roles, ", ") }

type requireOwnerOrRole struct {
	ownerID string
	role    string
}

func (r requireOwnerOrRole) satisfiedBy(c *domain.Claims) bool {
	return (r.ownerID != "" && c.IdentityID == r.ownerID) || c.HasRole(r.role)
}

func (r requireOwnerOrRole) String() string {
	return fmt.Sprintf("owner %q or role %s", r.ownerID, r.role)
}

// RequireRole allows callers holding role.
func RequireRole(role string) Requirement { return requireRole{role: role} }

// RequireAnyRole allows callers holding at least one of roles.
func RequireAnyRole(roles ...string) Requirement {
	return requireAnyRole{roles: append([]string(nil), roles...)}
}

// RequireOwnerOrRole allows the resource owner or callers holding role.
func RequireOwnerOrRole(ownerID, role string) Requirement {
	return requireOwnerOrRole{ownerID: ownerID, role: role}
}

// Decision is the outcome of Authorize. Reason is ReasonSuccess when
// Allowed, otherwise ReasonUnauthenticated or ReasonForbidden.
type Decision struct {
	Allowed bool
	Reason  domain.Reason
}

// Err returns nil for an allow, or the matching domain error.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == domain.ReasonUnauthenticated:
		return domain.ErrUnauthenticated
	default:
		return domain.ErrForbidden
	}
}

// Authorize evaluates req against the caller's claims.
func Authorize(c *domain.Claims, req Requirement) Decision {
	if !c.Authenticated() {
		return Decision{Reason: domain.ReasonUnauthenticated}
	}
	if req == nil || !req.satisfiedBy(c) {
		return Decision{Reason: domain.ReasonForbidden}
	}
	return Decision{Allowed: true, Reason: domain.ReasonSuccess}
}

// Check is Authorize(c, req).Err().
func Check(c *domain.Claims, req Requirement) error {
	return Authorize(c, req).Err()
}
