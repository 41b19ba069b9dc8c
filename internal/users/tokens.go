// internal/users/tokens.go
//
// Issues and verifies player tokens.
//
// A token is an HS256-signed JWT carrying a random subject (uuid) and the nickname
// it was issued for. The rest of the system treats it as an opaque string; the
// signature only lets forged or garbled tokens be rejected before any store lookup.
//
// Tokens do not expire: a player identity lives as long as its row in the store.

package users

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/robalobadob/boggle/internal/game"
)

// DevSecret is used when no TOKEN_SECRET is configured.
const DevSecret = "dev_secret_change_me"

// Issuer signs and verifies tokens with a shared secret.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer returns an Issuer for secret; an empty secret falls back to DevSecret.
func NewIssuer(secret string) *Issuer {
	if secret == "" {
		secret = DevSecret
	}
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Issue creates a fresh token for nickname.
func (i *Issuer) Issue(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", fmt.Errorf("issue token: empty nickname: %w", game.ErrInvalidInput)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"nick": nickname,
		"iat":  i.now().Unix(),
	})
	ss, err := t.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return ss, nil
}

// Verify checks the token's signature and shape. Any failure is reported as
// game.ErrNotFound: to callers a forged token is just an unknown one.
func (i *Issuer) Verify(token string) error {
	if token == "" {
		return fmt.Errorf("verify token: empty: %w", game.ErrNotFound)
	}
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return fmt.Errorf("verify token: %w", errors.Join(game.ErrNotFound, err))
	}
	if sub, _ := claims["sub"].(string); sub == "" {
		return fmt.Errorf("verify token: missing subject: %w", game.ErrNotFound)
	}
	return nil
}
