package models

import "time"

// Credential is a bearer token saved by `taskboard login` for one API
type Credential struct {
	BaseURL   string    `gorm:"primaryKey" json:"base_url"`
	Email     string    `json:"email"`
	Token     string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is the GET /auth/me payload
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	IsActive bool   `json:"is_active"`
}
