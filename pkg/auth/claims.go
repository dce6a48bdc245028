package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/greengomarket/greengo-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Email  string
	Role   *enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. Role is
// omitted for ordinary customers.
type AccessTokenClaims struct {
	UserID string          `json:"user_id"`
	Email  string          `json:"email"`
	Role   *enums.UserRole `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims carry the admin role.
func (c *AccessTokenClaims) IsAdmin() bool {
	return c != nil && c.Role != nil && *c.Role == enums.UserRoleAdmin
}
