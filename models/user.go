package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// UserStatusLocked blocks login until an admin activates the account.
	UserStatusLocked = "locked"
	// UserStatusActive allows login.
	UserStatusActive = "active"
)

// User owns all expenses, invoices and payments. Every engine query is scoped
// by user ID; rows of another user surface as not found.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password  string         `json:"-" gorm:"size:255;not null"`
	Email     string         `json:"email" gorm:"size:100"`
	Status    string         `json:"status" gorm:"size:20;default:locked;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
