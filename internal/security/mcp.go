package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MCPClaims are the claims carried by an MCP access credential.
type MCPClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// IssueMCPToken signs an HS256 credential granting MCP access for the user.
func IssueMCPToken(secret string, userID uuid.UUID, now time.Time, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, fmt.Errorf("mcp secret is not configured")
	}
	expiresAt := now.Add(ttl)
	claims := MCPClaims{
		Type: "mcp",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign mcp token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseMCPToken validates a credential and returns its claims. Used by tests
// and by operators inspecting issued tokens.
func ParseMCPToken(secret, tokenString string) (*MCPClaims, error) {
	claims := &MCPClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}
