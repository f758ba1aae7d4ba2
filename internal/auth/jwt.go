package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token verification failures. Callers match with errors.Is; the HTTP layer
// collapses them into generic messages so clients cannot tell which check
// failed.
var (
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired          = errors.New("token expired")
)

// Token kinds carried in the token_use claim. Verification rejects a token
// presented for the wrong use.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// Claims represents the JWT claims for both access and refresh tokens.
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies signed session tokens. It holds no state
// beyond the signing key and TTL policy; verification is pure signature plus
// expiry checking, so no store lookup happens per request.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration

	// now is injectable for deterministic expiry tests.
	now func() time.Time
}

// NewJWTManager creates a new JWT manager with the given secret and expiry durations.
func NewJWTManager(secret string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

// AccessExpiry returns the configured access token lifetime.
func (m *JWTManager) AccessExpiry() time.Duration {
	return m.accessExpiry
}

// Issue creates a signed token of the given kind carrying the user id and email.
func (m *JWTManager) Issue(userID, email, kind string) (string, error) {
	if kind != TokenKindAccess && kind != TokenKindRefresh {
		return "", fmt.Errorf("issue token: unknown kind %q", kind)
	}

	expiry := m.accessExpiry
	if kind == TokenKindRefresh {
		expiry = m.refreshExpiry
	}

	now := m.now().UTC()
	claims := &Claims{
		UserID:   userID,
		Email:    email,
		TokenUse: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Issuer:    "go-rest-api",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signedToken, nil
}

// Verify parses and validates a token of the given kind, returning its
// claims. Failures map to the typed sentinels above.
func (m *JWTManager) Verify(tokenString, kind string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.TokenUse != kind {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
