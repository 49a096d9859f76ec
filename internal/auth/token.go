package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/anempire/anempire-web/internal/shared"
)

// TokenIssuer mints and verifies signed session tokens. Tokens are
// self-contained bearer credentials: the expiry lives inside the signed
// payload, so a copied cookie cannot be revalidated past it. There is no
// server-side revocation list; disablement is enforced by re-fetching the
// user row on every privileged read.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Issue produces a signed token for the user with the configured validity.
func (t *TokenIssuer) Issue(user *User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: user.Email,
		Role:  string(user.Role),
	})
	return token.SignedString(t.secret)
}

// Verify checks the signature and expiry. Any tampered, malformed or expired
// token yields ErrUnauthorized; callers treat that identically to "no
// session".
func (t *TokenIssuer) Verify(tokenString string) (SessionData, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return SessionData{}, shared.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return SessionData{}, shared.ErrUnauthorized
	}
	return SessionData{
		UserID: userID,
		Email:  claims.Email,
		Role:   Role(claims.Role),
	}, nil
}

// TTL exposes the configured token lifetime for cookie max-age alignment.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}
