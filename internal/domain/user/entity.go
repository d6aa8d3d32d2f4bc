package user

import (
	"time"
)

// User represents the users table. The support admin is an ordinary user
// whose id is listed in the configured admin set.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	DisplayName  string    `gorm:"size:255;not null;default:''" json:"display_name"`
	AvatarURL    string    `gorm:"size:1024;not null;default:''" json:"avatar_url"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
