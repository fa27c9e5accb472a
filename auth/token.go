package auth

import (
	"time"

	"chat-relay/domain/chat"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload carried by a bearer token. UserID is always the
// normalized identity.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager mints and verifies the bearer tokens presented at the
// websocket handshake and on the HTTP read path.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(secret string, duration time.Duration) TokenManager {
	return TokenManager{secret: []byte(secret), duration: duration}
}

// Generate creates a signed HS256 token for the identity.
func (t TokenManager) Generate(identity string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: chat.NormalizeIdentity(identity),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chat-relay",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks signature and expiry and returns the normalized identity the
// token was minted for. The boolean is false for any invalid token; callers
// never learn why verification failed.
func (t TokenManager) Verify(tokenString string) (string, bool) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", false
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", false
	}
	return chat.NormalizeIdentity(claims.UserID), true
}
