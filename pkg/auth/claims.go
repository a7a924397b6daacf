package auth

import (
	"github.com/angelmondragon/foodhaul-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Principal is the authenticated caller. Controllers build it from the token and pass it to
// services explicitly.
type Principal struct {
	ID    uuid.UUID
	Role  enums.Role
	Email string
}

// Is reports whether the principal acts as role.
func (p Principal) Is(role enums.Role) bool {
	return p.ID != uuid.Nil && p.Role == role
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	SubjectID uuid.UUID  `json:"sub_id"`
	Role      enums.Role `json:"role"`
	Email     string     `json:"email,omitempty"`
	Verified  bool       `json:"verified"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the value services consume.
func (c *AccessTokenClaims) Principal() Principal {
	return Principal{ID: c.SubjectID, Role: c.Role, Email: c.Email}
}
