package models

import (
	"time"
)

// User represents an account in the system
type User struct {
	ID             int64     `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"hashed_password"`
	FullName       string    `json:"full_name,omitempty" db:"full_name"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	IsSuperuser    bool      `json:"is_superuser" db:"is_superuser"`
	IsAdmin        bool      `json:"is_admin" db:"is_admin"`
	Disabled       bool      `json:"disabled" db:"disabled"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance with defaults applied
func NewUser(username, email, hashedPassword string) *User {
	return &User{
		Username:       username,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
}

// CanAuthenticate returns true if the user is allowed to log in
func (u *User) CanAuthenticate() bool {
	return u.IsActive && !u.Disabled
}

// UserCreate is the request body for creating a user. IsActive is a
// pointer so an omitted field keeps the default from NewUser while an
// explicit false creates a deactivated account.
type UserCreate struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
	IsSuperuser bool   `json:"is_superuser"`
	IsAdmin     bool   `json:"is_admin"`
	Disabled    bool   `json:"disabled"`
}

// UserPasswordPatch is the request body for password updates.
// Both fields must match before the patch is applied.
type UserPasswordPatch struct {
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// UserResponse is the user representation exposed on the API
type UserResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name,omitempty"`
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	IsAdmin     bool   `json:"is_admin"`
	Disabled    bool   `json:"disabled"`
}

// ToResponse converts a User to its API representation
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		IsAdmin:     u.IsAdmin,
		Disabled:    u.Disabled,
	}
}
