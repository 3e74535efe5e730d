package permission

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"reviewhub/internal/httpapi/models"
)

func identity(role string, staff bool) Identity {
	return Identity{User: &models.User{ID: "caller-id", Role: role, IsStaff: staff}}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want bool
	}{
		{"anonymous", Anonymous, false},
		{"plain user", identity(models.RoleUser, false), false},
		{"moderator", identity(models.RoleModerator, false), false},
		{"admin role", identity(models.RoleAdmin, false), true},
		// The staff flag is an independent path to the same capability.
		{"staff user", identity(models.RoleUser, true), true},
		{"staff moderator", identity(models.RoleModerator, true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAdmin(tt.id))
		})
	}
}

func TestAdminOrReadOnly(t *testing.T) {
	user := identity(models.RoleUser, false)
	admin := identity(models.RoleAdmin, false)

	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assert.True(t, AdminOrReadOnly(Anonymous, m), "safe method %s open to anonymous", m)
		assert.True(t, AdminOrReadOnly(user, m))
	}
	for _, m := range []string{http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodPut} {
		assert.False(t, AdminOrReadOnly(Anonymous, m))
		assert.False(t, AdminOrReadOnly(user, m))
		assert.True(t, AdminOrReadOnly(admin, m))
	}
}

func TestAuthorOrModeratorOrAdmin_CollectionLevel(t *testing.T) {
	user := identity(models.RoleUser, false)

	assert.True(t, AuthorOrModeratorOrAdmin(Anonymous, http.MethodGet))
	assert.False(t, AuthorOrModeratorOrAdmin(Anonymous, http.MethodPost))
	assert.True(t, AuthorOrModeratorOrAdmin(user, http.MethodPost))
}

func TestAuthorOrModeratorOrAdmin_ObjectLevel(t *testing.T) {
	const authorID = "author-1"

	author := Identity{User: &models.User{ID: authorID, Role: models.RoleUser}}
	stranger := Identity{User: &models.User{ID: "other", Role: models.RoleUser}}
	moderator := Identity{User: &models.User{ID: "mod", Role: models.RoleModerator}}
	admin := Identity{User: &models.User{ID: "adm", Role: models.RoleAdmin}}
	staff := Identity{User: &models.User{ID: "stf", Role: models.RoleUser, IsStaff: true}}

	// Reads open to everyone, including anonymous.
	assert.True(t, AuthorOrModeratorOrAdminObject(Anonymous, http.MethodGet, authorID))

	for _, m := range []string{http.MethodPatch, http.MethodDelete} {
		assert.True(t, AuthorOrModeratorOrAdminObject(author, m, authorID))
		assert.True(t, AuthorOrModeratorOrAdminObject(moderator, m, authorID))
		assert.True(t, AuthorOrModeratorOrAdminObject(admin, m, authorID))
		assert.True(t, AuthorOrModeratorOrAdminObject(staff, m, authorID))
		assert.False(t, AuthorOrModeratorOrAdminObject(stranger, m, authorID))
		assert.False(t, AuthorOrModeratorOrAdminObject(Anonymous, m, authorID))
	}
}
