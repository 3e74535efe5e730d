// Package token issues and checks email confirmation codes. Codes are
// stateless: nothing is stored server-side. A code is an HMAC over a snapshot
// of the user's mutable state plus an issue timestamp, so any change to the
// user row rotates the input and invalidates every outstanding code. A valid
// code stays exchangeable until that happens; there is no single-use ledger.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/httpapi/models"
)

type ConfirmationGenerator struct {
	secret []byte
	ttl    time.Duration

	// now is swappable for tests
	now func() time.Time
}

func NewConfirmationGenerator(secret string, ttl time.Duration) *ConfirmationGenerator {
	return &ConfirmationGenerator{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// MakeCode issues a confirmation code bound to the user's current state.
func (g *ConfirmationGenerator) MakeCode(user *models.User) string {
	ts := g.now().Unix()
	return fmt.Sprintf("%s-%s", strconv.FormatInt(ts, 36), g.sign(user, ts))
}

// CheckCode verifies a code against the user's current state and the TTL.
// It never reveals why a code failed.
func (g *ConfirmationGenerator) CheckCode(user *models.User, code string) bool {
	tsPart, sigPart, ok := strings.Cut(code, "-")
	if !ok {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil {
		return false
	}

	now := g.now()
	if ts > now.Unix() || now.Sub(time.Unix(ts, 0)) > g.ttl {
		return false
	}

	return hmac.Equal([]byte(sigPart), []byte(g.sign(user, ts)))
}

// sign hashes the state snapshot: a changed role, password, email or any
// other update (UpdatedAt moves on every save) produces a different MAC.
func (g *ConfirmationGenerator) sign(user *models.User, ts int64) string {
	state := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%t\x00%d\x00%d",
		user.ID, user.Username, user.Role, user.Password, user.IsStaff,
		user.UpdatedAt.Unix(), ts)

	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(state))
	return hex.EncodeToString(mac.Sum(nil))
}
