package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an employee account
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password hash
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Sex          *string   `json:"sex,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
