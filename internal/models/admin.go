package models

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a village officer allowed to manage taxpayer data.
// PasswordHash is never serialized.
type Admin struct {
	CreatedAt    time.Time `json:"created_at"`
	Name         *string   `json:"name,omitempty"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	ID           uuid.UUID `json:"id"`
}
