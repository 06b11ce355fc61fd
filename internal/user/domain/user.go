package domain

import (
	"errors"
	"time"
)

// Well-known role names seeded at install time.
const (
	RoleAdmin     = "admin"
	RoleProfessor = "professor"
	RoleStudent   = "student"
)

// Role is an access role assignable to users.
type Role struct {
	ID          int32
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// User is a portal account. RoleName is denormalized from the roles table on
// read; it is never written through this struct.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Email        string
	RoleID       int32
	RoleName     string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	LastAccessAt *time.Time
}

// Validate checks required fields. Password hashing happens in the service;
// here only the hash's presence is checked.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	if u.Username == "" {
		return errors.New("username is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.FirstName == "" {
		return errors.New("first name is required")
	}
	if u.LastName == "" {
		return errors.New("last name is required")
	}
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.RoleID == 0 {
		return errors.New("role is required")
	}
	return nil
}
