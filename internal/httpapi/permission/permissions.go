// Package permission contains the access predicates evaluated by every
// handler before it touches the persistence layer. Each predicate is a pure
// function of the caller identity, the HTTP method and (for object-level
// checks) the target resource; a false return means the handler answers 403
// and performs no write.
package permission

import (
	"net/http"

	"reviewhub/internal/httpapi/models"
)

// Identity is the caller as resolved by the auth middleware. A nil User means
// the request is anonymous.
type Identity struct {
	User *models.User
}

// Anonymous is the identity of an unauthenticated request.
var Anonymous = Identity{}

func (id Identity) IsAuthenticated() bool {
	return id.User != nil
}

// IsSafeMethod reports whether the method is read-only (GET/HEAD/OPTIONS).
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// IsAdmin allows authenticated callers holding the admin capability, through
// either the admin role or the staff flag.
func IsAdmin(id Identity) bool {
	return id.IsAuthenticated() && id.User.IsAdmin()
}

// AdminOrReadOnly allows safe methods unconditionally; writes need IsAdmin.
func AdminOrReadOnly(id Identity, method string) bool {
	return IsSafeMethod(method) || IsAdmin(id)
}

// AuthorOrModeratorOrAdmin is the collection-level check for reviews and
// comments: reads are open, writes need an authenticated caller.
func AuthorOrModeratorOrAdmin(id Identity, method string) bool {
	return IsSafeMethod(method) || id.IsAuthenticated()
}

// AuthorOrModeratorOrAdminObject is the object-level companion, evaluated
// against the concrete record's author. It does not assume the collection
// check already ran for this object.
func AuthorOrModeratorOrAdminObject(id Identity, method, authorID string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if !id.IsAuthenticated() {
		return false
	}
	return id.User.ID == authorID || id.User.IsModerator() || id.User.IsAdmin()
}
