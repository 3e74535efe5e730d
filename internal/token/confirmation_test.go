package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewhub/internal/httpapi/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *models.User {
	return &models.User{
		ID:        "3f6c2e1a-0000-4000-8000-000000000001",
		Username:  "reader",
		Email:     "reader@example.com",
		Role:      models.RoleUser,
		UpdatedAt: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestMakeAndCheckCode(t *testing.T) {
	g := NewConfirmationGenerator(testSecret, 24*time.Hour)
	user := testUser()

	code := g.MakeCode(user)
	require.NotEmpty(t, code)
	assert.True(t, g.CheckCode(user, code))

	// Codes are not single-use: the same code verifies again while the user
	// state is unchanged.
	assert.True(t, g.CheckCode(user, code))
}

func TestCheckCode_RejectsGarbage(t *testing.T) {
	g := NewConfirmationGenerator(testSecret, 24*time.Hour)
	user := testUser()

	for _, code := range []string{"", "no-dash-but-bad", "zzzz", "-", "12345", "1a2b-deadbeef"} {
		assert.False(t, g.CheckCode(user, code), "code %q should fail", code)
	}
}

func TestCheckCode_StateChangeInvalidates(t *testing.T) {
	g := NewConfirmationGenerator(testSecret, 24*time.Hour)
	user := testUser()
	code := g.MakeCode(user)

	t.Run("role change", func(t *testing.T) {
		changed := *user
		changed.Role = models.RoleModerator
		assert.False(t, g.CheckCode(&changed, code))
	})

	t.Run("password change", func(t *testing.T) {
		changed := *user
		changed.Password = "$2a$10$something"
		assert.False(t, g.CheckCode(&changed, code))
	})

	t.Run("any row update", func(t *testing.T) {
		changed := *user
		changed.UpdatedAt = changed.UpdatedAt.Add(time.Second)
		assert.False(t, g.CheckCode(&changed, code))
	})
}

func TestCheckCode_Expiry(t *testing.T) {
	g := NewConfirmationGenerator(testSecret, time.Hour)
	user := testUser()

	issued := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return issued }
	code := g.MakeCode(user)

	g.now = func() time.Time { return issued.Add(59 * time.Minute) }
	assert.True(t, g.CheckCode(user, code))

	g.now = func() time.Time { return issued.Add(61 * time.Minute) }
	assert.False(t, g.CheckCode(user, code))

	// A code stamped in the future is never valid.
	g.now = func() time.Time { return issued.Add(-time.Minute) }
	assert.False(t, g.CheckCode(user, code))
}

func TestCheckCode_DifferentSecret(t *testing.T) {
	user := testUser()
	code := NewConfirmationGenerator(testSecret, time.Hour).MakeCode(user)
	other := NewConfirmationGenerator("ffffffffffffffffffffffffffffffff", time.Hour)
	assert.False(t, other.CheckCode(user, code))
}
