package domain

import "time"

// Role is the closed set of account roles.
type Role string

const (
	RoleUser  Role = "User"
	RoleStaff Role = "Staff"
	RoleAdmin Role = "Admin"
)

// Roles lists every role.
var Roles = []Role{RoleUser, RoleStaff, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User is an account of any role.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   *string
	ContactInfo  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
