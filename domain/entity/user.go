package entity

import (
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewUser(id, email, password, role string) *User {
	now := time.Now().UTC()
	if role == "" {
		role = RoleUser
	}
	return &User{
		ID:        id,
		Email:     email,
		Password:  password,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsPrivileged reports whether the user gets the privileged rate tier and
// may mutate products.
func (u *User) IsPrivileged() bool {
	return IsPrivilegedRole(u.Role)
}

func IsPrivilegedRole(role string) bool {
	switch role {
	case RoleAdmin, "superadmin", "super_admin":
		return true
	}
	return false
}
