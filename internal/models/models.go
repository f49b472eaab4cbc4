package models

import (
	"slices"
	"time"
)

const (
	RoleAdmin         = "admin"
	RoleSecurityAdmin = "security_admin"
	RoleManager       = "manager"
)

// User is the authenticated principal attached to a request by the
// session middleware.
type User struct {
	Id        int
	Email     string
	Username  string
	Role      string
	ExpiresAt *time.Time
	IsAuth    bool
}

// CanAdministerSecurity reports whether the user holds one of the roles
// granted the security administrator capability.
func (u User) CanAdministerSecurity(adminRoles []string) bool {
	if !u.IsAuth || u.Role == "" {
		return false
	}
	return slices.Contains(adminRoles, u.Role)
}
