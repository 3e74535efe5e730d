package service

import "errors"

// Sentinel errors mapped to HTTP statuses by the handlers. Uniqueness
// violations all land in the same conflict category whether they were caught
// by an application-level check or by a storage constraint during a race.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUsernameTaken   = errors.New("username already in use")
	ErrEmailTaken      = errors.New("email already in use")
	ErrSlugTaken       = errors.New("slug already in use")
	ErrDuplicateReview = errors.New("review for this title already exists")
	ErrInvalidCode     = errors.New("invalid confirmation code")
	ErrInvalidToken    = errors.New("invalid token")
)

// IsConflict reports whether err belongs to the uniqueness-conflict category.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrSlugTaken) ||
		errors.Is(err, ErrDuplicateReview)
}
