package user

import (
	"fmt"
	"time"
)

// Role classifies what a user may do in the system. Values match the wire
// format of the original deployment.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleTechnician Role = "Técnico"
	RoleAccountant Role = "Contador"
	RoleAuditor    Role = "Auditor"
	RoleEmployee   Role = "Empleado"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTechnician, RoleAccountant, RoleAuditor, RoleEmployee}
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	for _, r := range Roles() {
		if string(r) == raw {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// User is a person who owns, maintains or audits assets.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"nombre_completo"`
	Email     string    `json:"email"`
	Role      Role      `json:"rol"`
	CreatedAt time.Time `json:"created_at"`
}
