// Package models contains data structures for the blog's domain models.
package models

import (
	"strings"
	"time"
)

// Role is the global authority level of a user.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole accepts a role name in any case.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, true
	case RoleModerator:
		return RoleModerator, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User represents an account on the blog.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	FirstName string    `gorm:"size:100" json:"firstName,omitempty"`
	LastName  string    `gorm:"size:100" json:"lastName,omitempty"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	Role      Role      `gorm:"size:20;not null;default:USER;index" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSummary is the author projection embedded in posts and comments.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Summary returns the public author projection.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Username: u.Username}
}

// PublicProfile is what other users see; the email stays private.
type PublicProfile struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips private fields.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Bio:       u.Bio,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
