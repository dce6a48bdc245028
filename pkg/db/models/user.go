package models

import (
	"time"
)

// User represents the normalized identity record mirrored from the auth flow.
// Role is NULL for ordinary customers; "admin" is the only elevated value.
type User struct {
	ID            string     `gorm:"column:id;type:uuid;primaryKey"`
	Name          string     `gorm:"column:name;not null"`
	Email         string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash  *string    `gorm:"column:password_hash"`
	Role          *string    `gorm:"column:role"`
	EmailVerified bool       `gorm:"column:email_verified;not null;default:false"`
	Provider      string     `gorm:"column:provider;not null;default:'password'"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role != nil && *u.Role == "admin"
}
