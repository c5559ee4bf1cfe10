package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleParent     UserRole = "PARENT"
	RoleAdmin      UserRole = "ADMIN"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
)

// IsStaff reports whether the role may perform admin operations.
func (r UserRole) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// ApplicationCap returns the maximum number of applications a user with this
// role may own. Zero means the role does not submit applications.
func (r UserRole) ApplicationCap() int {
	switch r {
	case RoleStudent:
		return 1
	case RoleParent:
		return 5
	default:
		return 0
	}
}

type User struct {
	ID        string   `json:"id" gorm:"primaryKey;size:255"`
	FirstName string   `json:"first_name" gorm:"not null;size:100"`
	LastName  string   `json:"last_name" gorm:"not null;size:100;index"`
	Email     string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role      UserRole `json:"role" gorm:"not null;default:STUDENT;size:20"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Applications []Application `json:"-" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

// FullName returns the display name used on slips and admin listings.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
