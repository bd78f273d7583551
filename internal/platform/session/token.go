package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrBadToken = errors.New("invalid session token")

// Claims is the session token payload: the minimal principal plus the
// registered expiry claims.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// Mint signs a session token for the principal, valid for ttl.
func Mint(p Principal, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		Username: p.Username,
		Role:     p.Role,
		FullName: p.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// Verify parses and validates a session token and rebuilds the principal.
func Verify(raw, secret string) (Principal, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, ErrBadToken
	}

	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return Principal{}, ErrBadToken
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Principal{}, ErrBadToken
	}

	return Principal{
		ID:       id,
		Username: c.Username,
		Role:     c.Role,
		FullName: c.FullName,
	}, nil
}
