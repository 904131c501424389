package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"-"`
	Password  string    `json:"-"` // bcrypt hash, empty for Google-only accounts
	Image     string    `json:"image"`
	Role      string    `gorm:"size:20;default:'user';not null" json:"role"`
	GoogleID  string    `gorm:"index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Author is the public projection of a user embedded in posts and comments.
type Author struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (u User) Author() Author {
	return Author{Name: u.Name, Image: u.Image}
}
