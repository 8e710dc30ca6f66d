package model

import "time"

// Operator represents a staff user. Operators bypass session ownership
// checks and can inspect any attempt's results.
type Operator struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// OperatorLoginRequest is the payload for operator authentication.
type OperatorLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// OperatorLoginResponse is returned after successful operator login.
type OperatorLoginResponse struct {
	Token    string   `json:"token"`
	Operator Operator `json:"operator"`
}
