package user

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is the session token lifetime spec.md §4.10 calls for.
const tokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned by TokenSigner.Verify for any token that
// fails signature verification, is expired, or is otherwise malformed.
var ErrInvalidToken = errors.New("user: invalid or expired token")

// Claims is the payload carried by a signed session token. Subject (the
// standard JWT "sub" field) holds the user id; Username is a convenience
// claim so callers needn't re-look-up the profile just to get a display
// name.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// TokenSigner issues and verifies HS256 session tokens.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner returns a TokenSigner using secret as the HMAC key.
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// Sign produces a token bearing userID as subject and username as a claim,
// expiring after tokenTTL.
func (s *TokenSigner) Sign(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns its claims.
func (s *TokenSigner) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
