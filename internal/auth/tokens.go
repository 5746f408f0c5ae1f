package auth

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
)

type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256-signed credentials. The subject
// is the principal's email.
type TokenManager struct {
	signingKey []byte
	expiration time.Duration
}

func NewTokenManager(base64Secret string, expiration time.Duration) (*TokenManager, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("jwt secret is not valid base64: %w", err)
	}
	if len(keyBytes) < 32 {
		return nil, fmt.Errorf("jwt secret must decode to at least 32 bytes")
	}

	return &TokenManager{
		signingKey: keyBytes,
		expiration: expiration,
	}, nil
}

func (m *TokenManager) Generate(email string, role domain.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

// Parse verifies the signature and expiry and returns the claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.ErrUnauthorized
	}
	return claims, nil
}
