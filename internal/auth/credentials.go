// Package auth — credential policy.
//
// These checks are pure functions over the submitted strings: no I/O, no
// mutation. ValidatePassword returns the FIRST rule that fails, in a fixed
// order, so a client always sees one actionable message at a time.
package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Password length limits, in bytes. 72 is the most bcrypt will consume.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// specialChars is the set a password must draw at least one character from.
const specialChars = "!@#$%^&"

// PolicyKind identifies which credential rule was violated.
type PolicyKind int

const (
	InvalidUsername PolicyKind = iota + 1
	TooShort
	TooLong
	InvalidWhitespace
	InsufficientComplexity
)

// Sentinels for errors.Is checks, e.g. errors.Is(err, auth.ErrTooShort).
var (
	ErrInvalidUsername        = &PolicyError{Kind: InvalidUsername}
	ErrTooShort               = &PolicyError{Kind: TooShort}
	ErrTooLong                = &PolicyError{Kind: TooLong}
	ErrInvalidWhitespace      = &PolicyError{Kind: InvalidWhitespace}
	ErrInsufficientComplexity = &PolicyError{Kind: InsufficientComplexity}
)

var policyMessages = map[PolicyKind]string{
	InvalidUsername:        "User Name must not start or end with empty spaces",
	TooShort:               "Password be longer than 8 characters",
	TooLong:                "Password be less than 72 characters",
	InvalidWhitespace:      "Password must not start or end with empty spaces",
	InsufficientComplexity: "Password must contain one upper case, lower case, number and special character",
}

// PolicyError is a credential policy violation. Error() is the message shown
// to the client.
type PolicyError struct {
	Kind PolicyKind
}

func (e *PolicyError) Error() string {
	return policyMessages[e.Kind]
}

// Is matches any PolicyError of the same kind.
func (e *PolicyError) Is(target error) bool {
	t, ok := target.(*PolicyError)
	return ok && t.Kind == e.Kind
}

// ValidateUsername rejects names with leading or trailing whitespace.
func ValidateUsername(name string) error {
	first, _ := utf8.DecodeRuneInString(name)
	last, _ := utf8.DecodeLastRuneInString(name)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		return &PolicyError{Kind: InvalidUsername}
	}
	return nil
}

// ValidatePassword checks, in order: minimum length, maximum length,
// leading/trailing space, and complexity (lower, upper, digit, special).
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return &PolicyError{Kind: TooShort}
	case len(password) > MaxPasswordLength:
		return &PolicyError{Kind: TooLong}
	case strings.HasPrefix(password, " ") || strings.HasSuffix(password, " "):
		return &PolicyError{Kind: InvalidWhitespace}
	case !isComplex(password):
		return &PolicyError{Kind: InsufficientComplexity}
	}
	return nil
}

func isComplex(password string) bool {
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	return lower && upper && digit && special
}
