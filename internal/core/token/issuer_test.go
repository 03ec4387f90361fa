package token

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskdesk/task-system/internal/core/domain"
)

var testConfig = Config{Secret: "test-secret", Issuer: "task-system", Audience: "task-system-web"}

func newTestIssuer(t *testing.T, opts ...Option) *Issuer {
	t.Helper()
	iss, err := NewIssuer(testConfig, opts...)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return iss
}

func testIdentity() *domain.Identity {
	return &domain.Identity{ID: "id-1", Username: "alice", Email: "alice@example.com"}
}

func TestNewIssuer_Misconfigured(t *testing.T) {
	cases := []Config{
		{Issuer: "i", Audience: "a"},
		{Secret: "s", Audience: "a"},
		{Secret: "s", Issuer: "i"},
		{Secret: "  ", Issuer: "i", Audience: "a"},
	}
	for _, cfg := range cases {
		if _, err := NewIssuer(cfg); !errors.Is(err, ErrMisconfiguredSigning) {
			t.Fatalf("config %+v: expected ErrMisconfiguredSigning, got %v", cfg, err)
		}
	}
}

func TestIssueAndValidate_RoundTrip(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	iss := newTestIssuer(t, WithClock(func() time.Time { return now }))

	raw, err := iss.Issue(testIdentity(), []string{domain.RoleUser, domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := iss.Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.IdentityID != "id-1" || claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !slices.Equal(claims.Roles, []string{domain.RoleUser, domain.RoleAdmin}) {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
	if claims.TokenID == "" {
		t.Fatalf("expected jti")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt); got != Lifetime {
		t.Fatalf("expected lifetime %v, got %v", Lifetime, got)
	}
}

func TestIssue_UniqueTokenIDs(t *testing.T) {
	iss := newTestIssuer(t)
	a, _ := iss.Issue(testIdentity(), []string{domain.RoleUser})
	b, _ := iss.Issue(testIdentity(), []string{domain.RoleUser})

	ca, err := iss.Validate(a)
	if err != nil {
		t.Fatalf("validate a: %v", err)
	}
	cb, err := iss.Validate(b)
	if err != nil {
		t.Fatalf("validate b: %v", err)
	}
	if ca.TokenID == cb.TokenID {
		t.Fatalf("expected distinct jti values")
	}
}

func TestValidate_Expired(t *testing.T) {
	past := time.Now().Add(-Lifetime - time.Second)
	minted := newTestIssuer(t, WithClock(func() time.Time { return past }))
	raw, err := minted.Issue(testIdentity(), []string{domain.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := newTestIssuer(t).Validate(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	iss := newTestIssuer(t)
	good, err := iss.Issue(testIdentity(), []string{domain.RoleUser})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otherSecret, _ := NewIssuer(Config{Secret: "other", Issuer: testConfig.Issuer, Audience: testConfig.Audience})
	otherIssuer, _ := NewIssuer(Config{Secret: testConfig.Secret, Issuer: "someone-else", Audience: testConfig.Audience})
	otherAudience, _ := NewIssuer(Config{Secret: testConfig.Secret, Issuer: testConfig.Issuer, Audience: "mobile"})

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "id-1",
		"iss": testConfig.Issuer,
		"aud": testConfig.Audience,
	})
	noExpRaw, _ := noExp.SignedString([]byte(testConfig.Secret))

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "id-1",
		"iss": testConfig.Issuer,
		"aud": testConfig.Audience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	hs512Raw, _ := hs512.SignedString([]byte(testConfig.Secret))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "id-1",
		"iss": testConfig.Issuer,
		"aud": testConfig.Audience,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	unsignedRaw, _ := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)

	cases := []struct {
		name      string
		validator *Issuer
		raw       string
	}{
		{"garbage", iss, "not-a-token"},
		{"wrong secret", otherSecret, good},
		{"wrong issuer", otherIssuer, good},
		{"wrong audience", otherAudience, good},
		{"missing exp", iss, noExpRaw},
		{"other algorithm", iss, hs512Raw},
		{"alg none", iss, unsignedRaw},
	}

	for _, tc := range cases {
		if _, err := tc.validator.Validate(tc.raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", tc.name, err)
		}
	}
	if domain.ReasonOf(ErrInvalidToken) != domain.ReasonUnauthenticated {
		t.Fatalf("invalid tokens must map to Unauthenticated")
	}
}

func TestValidate_SingleRoleString(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "id-9",
		"iss":  testConfig.Issuer,
		"aud":  testConfig.Audience,
		"exp":  time.Now().Add(time.Hour).Unix(),
		"role": "Admin",
	})
	raw, _ := tok.SignedString([]byte(testConfig.Secret))

	claims, err := newTestIssuer(t).Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.IdentityID != "id-9" || !claims.HasRole(domain.RoleAdmin) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIssue_RequiresIdentityID(t *testing.T) {
	if _, err := newTestIssuer(t).Issue(&domain.Identity{}, nil); err == nil {
		t.Fatalf("expected error for identity without id")
	}
}
