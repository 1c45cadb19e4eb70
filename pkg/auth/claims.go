package auth

import (
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	Username string
	Role     enums.ActorRole
	UserType enums.UserType
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID       `json:"user_id"`
	Username string          `json:"username"`
	Role     enums.ActorRole `json:"role"`
	UserType enums.UserType  `json:"user_type"`
	jwt.RegisteredClaims
}

// IsStaff reports whether the token was minted for a staff account.
func (c *AccessTokenClaims) IsStaff() bool {
	return c != nil && c.Role == enums.ActorRoleStaff
}
