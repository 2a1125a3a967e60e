package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", key, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

// JWTAuth exposes the underlying verifier for router middleware.
func (ti *TokenIssuer) JWTAuth() *jwtauth.JWTAuth {
	return ti.auth
}

func (ti *TokenIssuer) GenerateToken(userID, email string) (string, time.Time, error) {
	now := ti.now()
	expiresAt := now.Add(ti.ttl)
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     expiresAt.Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := ti.auth.Encode(claims)
	return tokenString, expiresAt, err
}

// ParseToken verifies the signature and expiry of tokenString and returns
// its claims.
func (ti *TokenIssuer) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwtauth.VerifyToken(ti.auth, tokenString)
	if err != nil {
		return nil, err
	}
	return token.PrivateClaims(), nil
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetEmailFromClaims(claims jwt.MapClaims) (string, error) {
	email, ok := claims["email"].(string)
	if !ok {
		return "", errors.New("email claim is missing or not a string")
	}
	return email, nil
}
