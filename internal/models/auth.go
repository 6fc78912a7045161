package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the lab RBAC rules. Roles are
// assigned by the hospital identity service; this API only enforces them.
type UserRole string

const (
	RoleAdmin         UserRole = "ADMIN"
	RoleReception     UserRole = "RECEPTION"
	RoleDoctor        UserRole = "DOCTOR"
	RoleLaborant      UserRole = "LABORANT"
	RoleLabSupervisor UserRole = "LAB_SUPERVISOR"
)

// JWTClaims represents the access token payload issued by the identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
