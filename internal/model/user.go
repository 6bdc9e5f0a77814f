package model

import "time"

type User struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Username      string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	Email         string    `json:"email" gorm:"size:254;not null;uniqueIndex"`
	PasswordHash  string    `json:"-" gorm:"not null"`
	EmailVerified bool      `json:"email_verified" gorm:"not null;default:false"`
	IsStaff       bool      `json:"is_staff" gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
