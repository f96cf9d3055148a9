package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

const ClaimsKey ctxKey = 1

// CookieName is the session cookie set by the identity service.
const CookieName = "mizora_auth_token"

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Keys verifies HS256 tokens minted by the identity service.
type Keys struct {
	secret []byte
}

func NewKeys(secret string) (*Keys, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Keys{secret: []byte(secret)}, nil
}

func (k *Keys) GenerateToken(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (k *Keys) ValidateToken(tokenStr string) (Claims, error) {
	var c Claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		return k.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if c.Subject == "" {
		return Claims{}, errors.New("token has no subject")
	}
	return c, nil
}

// NewClaims is a convenience for a user token expiring after ttl.
func NewClaims(userID, email string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}
}
