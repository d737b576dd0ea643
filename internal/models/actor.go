package models

import "github.com/golang-jwt/jwt/v5"

// ActorRole represents the roles recognised by the access policy.
type ActorRole string

const (
	RoleSuperAdmin ActorRole = "SUPERADMIN"
	RoleDirection  ActorRole = "DIRECTION"
	RoleProfessor  ActorRole = "PROFESSOR"
	RoleStudent    ActorRole = "STUDENT"
)

// ActorClaims is the actor context resolved by the upstream identity
// layer and carried in the bearer token. This service never
// authenticates; it only trusts and decodes these claims.
type ActorClaims struct {
	ActorID  string    `json:"actor_id"`
	Role     ActorRole `json:"role"`
	TenantID string    `json:"tenant_id"`
	jwt.RegisteredClaims
}

// Superuser reports whether the actor bypasses tenant scoping.
// State-machine invariants still apply to superusers.
func (c *ActorClaims) Superuser() bool {
	return c.Role == RoleSuperAdmin
}
