// Package validation holds the field validators shared by signup, user
// management and catalog writes. The username/email/slug patterns are fixed:
// changing a character class changes which accounts can exist, so they are
// spelled out here rather than delegated to a generic format library.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	MaxUsernameLen = 150
	MaxEmailLen    = 254
	MaxSlugLen     = 50

	MinScore = 1
	MaxScore = 10
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)
	// localpart@domain, domain labels dot-separated. The domain tail class
	// includes the dot itself, so consecutive dots are accepted on purpose.
	emailRe = regexp.MustCompile(`^[A-Za-z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	slugRe  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// FieldError is a validation failure attributed to a single payload field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// Username rejects the reserved literal "me" before anything else so that it
// gets its own reason even when the pattern check would also fail.
func Username(s string) error {
	if strings.EqualFold(s, "me") {
		return fieldErr("username", `"me" is not a valid username`)
	}
	if s == "" || len(s) > MaxUsernameLen {
		return fieldErr("username", fmt.Sprintf("must be between 1 and %d characters", MaxUsernameLen))
	}
	if !usernameRe.MatchString(s) {
		return fieldErr("username", "contains invalid characters")
	}
	return nil
}

// EmailAddress checks the whole string against the localpart@domain pattern.
func EmailAddress(s string) error {
	if s == "" || len(s) > MaxEmailLen {
		return fieldErr("email", fmt.Sprintf("must be between 1 and %d characters", MaxEmailLen))
	}
	if !emailRe.MatchString(s) {
		return fieldErr("email", "contains invalid characters")
	}
	return nil
}

// Score accepts integers in [1, 10] inclusive.
func Score(v int) error {
	if v < MinScore || v > MaxScore {
		return fieldErr("score", fmt.Sprintf("must be between %d and %d", MinScore, MaxScore))
	}
	return nil
}

// Year rejects years after the current calendar year, evaluated at call time.
func Year(y int) error {
	if y > time.Now().Year() {
		return fieldErr("year", "cannot be in the future")
	}
	return nil
}

// Slug accepts URL-safe identifiers: letters, digits, hyphen, underscore.
func Slug(s string) error {
	if s == "" || len(s) > MaxSlugLen {
		return fieldErr("slug", fmt.Sprintf("must be between 1 and %d characters", MaxSlugLen))
	}
	if !slugRe.MatchString(s) {
		return fieldErr("slug", "must contain only letters, digits, hyphens and underscores")
	}
	return nil
}
