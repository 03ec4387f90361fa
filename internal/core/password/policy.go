// Package password validates password strength and hashes credentials.
package password

import (
	"fmt"
	"unicode"
)

// MaxBytes is the longest input bcrypt accepts.
const MaxBytes = 72

// Policy describes the strength rules a new password must satisfy.
type Policy struct {
	MinLength              int
	RequireDigit           bool
	RequireUppercase       bool
	RequireLowercase       bool
	RequireNonAlphanumeric bool
	RequiredUniqueChars    int
}

// DefaultPolicy: at least 8 characters with a digit, an upper-case and a
// lower-case letter; symbols optional.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:           8,
		RequireDigit:        true,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequiredUniqueChars: 1,
	}
}

// Violation is one failed rule.
type Violation struct {
	Code    string
	Message string
}

func (v Violation) String() string { return v.Message }

// Validate returns every rule plaintext breaks; an empty slice means the
// password is acceptable.
func (p Policy) Validate(plaintext string) []Violation {
	var out []Violation

	runes := []rune(plaintext)
	if len(runes) < p.MinLength {
		out = append(out, Violation{
			Code:    "PasswordTooShort",
			Message: fmt.Sprintf("Passwords must be at least %d characters.", p.MinLength),
		})
	}
	if len(plaintext) > MaxBytes {
		out = append(out, Violation{
			Code:    "PasswordTooLong",
			Message: fmt.Sprintf("Passwords must be at most %d bytes.", MaxBytes),
		})
	}

	var hasDigit, hasUpper, hasLower, hasSymbol bool
	unique := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		unique[r] = struct{}{}
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSymbol = true
		}
	}

	if p.RequireNonAlphanumeric && !hasSymbol {
		out = append(out, Violation{
			Code:    "PasswordRequiresNonAlphanumeric",
			Message: "Passwords must have at least one non alphanumeric character.",
		})
	}
	if p.RequireDigit && !hasDigit {
		out = append(out, Violation{
			Code:    "PasswordRequiresDigit",
			Message: "Passwords must have at least one digit ('0'-'9').",
		})
	}
	if p.RequireLowercase && !hasLower {
		out = append(out, Violation{
			Code:    "PasswordRequiresLower",
			Message: "Passwords must have at least one lowercase ('a'-'z').",
		})
	}
	if p.RequireUppercase && !hasUpper {
		out = append(out, Violation{
			Code:    "PasswordRequiresUpper",
			Message: "Passwords must have at least one uppercase ('A'-'Z').",
		})
	}
	if len(unique) < p.RequiredUniqueChars {
		out = append(out, Violation{
			Code:    "PasswordRequiresUniqueChars",
			Message: fmt.Sprintf("Passwords must use at least %d different characters.", p.RequiredUniqueChars),
		})
	}
	return out
}

// Messages flattens violations into their human-readable messages.
func Messages(vs []Violation) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Message)
	}
	return out
}
