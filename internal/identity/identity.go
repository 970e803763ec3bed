// Package identity carries the acting user through the application.
package identity

import (
	"errors"
	"fmt"
)

// Role is the application role attached to a user.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// ErrNoUser is returned when no current user can be resolved.
var ErrNoUser = errors.New("no current user")

// User is the read-only identity handed to components that act on behalf of
// someone. It is passed explicitly; nothing in placeprep keeps a global one.
type User struct {
	ID   string
	Role Role
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Valid reports whether the user carries an ID and a known role.
func (u User) Valid() bool {
	if u.ID == "" {
		return false
	}
	return u.Role == RoleStudent || u.Role == RoleAdmin
}

// ParseRole maps a role string to a Role. Empty defaults to student.
func ParseRole(s string) (Role, error) {
	switch s {
	case "", string(RoleStudent):
		return RoleStudent, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// New builds a User, validating the role string.
func New(id, role string) (User, error) {
	if id == "" {
		return User{}, ErrNoUser
	}
	r, err := ParseRole(role)
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Role: r}, nil
}
