package core

import (
	"context"
	"time"
)

// Role is a user's permission level.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleSeller Role = "SELLER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSeller
}

// User is an account that can sign in and act on stock.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor returns the core actor for u.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID}
}

// UserService provides user lookup and credential checks.
type UserService interface {
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int64) (*User, error)

	// Authenticate returns the user when password matches, ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, username, password string) (*User, error)

	// UpsertUser creates username or resets its password and role.
	UpsertUser(ctx context.Context, username, password string, role Role) (*User, error)
}
