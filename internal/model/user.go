package model

import (
	"fmt"
	"time"
)

// Role is the privilege level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User represents an authenticated user in the system.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Email          string    `json:"email" gorm:"size:100;uniqueIndex;not null"`
	FullName       *string   `json:"full_name" gorm:"size:100"`
	HashedPassword string    `json:"-" gorm:"column:hashed_password;size:255;not null"` // Never expose in JSON
	Role           Role      `json:"role" gorm:"size:20;not null;default:'user'"`
	IsActive       bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
