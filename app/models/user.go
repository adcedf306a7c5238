package models

import (
	"strings"
	"time"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	FirstName    string  `gorm:"size:30" json:"first_name"`
	LastName     string  `gorm:"size:50" json:"last_name"`
	Email        string  `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Password     string  `gorm:"size:255;not null" json:"-"`
	ProfileImage string  `gorm:"size:255" json:"profile_image"`
	Token        *string `gorm:"size:64;uniqueIndex" json:"-"`
	IsStaff      bool    `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser  bool    `gorm:"not null;default:false" json:"is_superuser"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName falls back to the email when no name was given.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
