package models

import "github.com/golang-jwt/jwt/v4"

// RoleAdmin is the elevated role required for moderation endpoints
const RoleAdmin = "admin"

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims.
// They carry the already-verified identity this service trusts: the subject
// id, email and role. Issuing and validating the credential itself is the
// job of the auth collaborator, not this service.
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
