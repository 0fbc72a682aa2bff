package models

import "github.com/golang-jwt/jwt/v5"

// UserRole identifies the caller's role within the marketplace.
type UserRole string

const (
	RoleTeacher UserRole = "TEACHER"
	RoleAdmin   UserRole = "ADMIN"
)

// JWTClaims is the access-token payload issued by the identity collaborator.
// TeacherID is the authenticated teacher acting in mutating calls; it is
// never read from request bodies.
type JWTClaims struct {
	TeacherID string   `json:"teacher_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	jwt.RegisteredClaims
}
