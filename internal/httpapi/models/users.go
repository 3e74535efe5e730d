package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values a user can hold. Staff status is tracked separately: it is an
// independent capability flag, not a fourth role.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

type User struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password  string    `gorm:"column:password_hash" json:"-"` // Not show in JSON; empty for signup-created users
	Role      string    `gorm:"size:15;default:'user';not null" json:"role"`
	IsStaff   bool      `gorm:"default:false;not null" json:"is_staff"`
	FirstName string    `gorm:"size:150" json:"first_name"`
	LastName  string    `gorm:"size:150" json:"last_name"`
	Bio       string    `gorm:"size:1000" json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	// If the ID is not already set, generate a new one.
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

// IsAdmin resolves the admin capability. Both paths grant it: the admin role
// and the staff flag. Callers must not check Role directly.
func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin || user.IsStaff
}

// IsModerator reports whether the user holds the moderator role.
func (user *User) IsModerator() bool {
	return user.Role == RoleModerator
}

// HasUsablePassword reports whether a password was ever set. Signup-created
// accounts authenticate through confirmation codes only.
func (user *User) HasUsablePassword() bool {
	return user.Password != ""
}

func (User) TableName() string {
	return "users"
}
