package users

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/boggle/internal/game"
)

func TestIssuer_IssueAndVerify(t *testing.T) {
	iss := NewIssuer("s3cret")

	a, err := iss.Issue("Andrew")
	require.NoError(t, err)
	b, err := iss.Issue("Andrew")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "every registration gets its own token")
	assert.NoError(t, iss.Verify(a))
	assert.NoError(t, iss.Verify(b))
}

func TestIssuer_IssueRejectsBlankNickname(t *testing.T) {
	iss := NewIssuer("")
	for _, nick := range []string{"", "   "} {
		_, err := iss.Issue(nick)
		assert.ErrorIs(t, err, game.ErrInvalidInput)
	}
}

func TestIssuer_VerifyRejects(t *testing.T) {
	iss := NewIssuer("s3cret")
	good, err := iss.Issue("Sam")
	require.NoError(t, err)

	other, err := NewIssuer("another").Issue("Sam")
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"nick": "Sam"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "thisSHOULDNTwork",
		"wrong secret": other,
		"tampered":     tamper(good),
		"no subject":   noSub,
	} {
		assert.ErrorIs(t, iss.Verify(tok), game.ErrNotFound, name)
	}
}

// tamper swaps one character in the middle of the signature segment.
func tamper(tok string) string {
	i := strings.LastIndex(tok, ".") + 5
	c := byte('A')
	if tok[i] == 'A' {
		c = 'B'
	}
	return tok[:i] + string(c) + tok[i+1:]
}
