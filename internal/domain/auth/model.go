// internal/domain/auth/model.go
package auth

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Location     string    `json:"location,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SignupRequest carries the addUser arguments. Password holds the bcrypt hash
// once it reaches the repository.
type SignupRequest struct {
	Username    string `json:"username" validate:"required,max=50"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=5"`
	Location    string `json:"location" validate:"max=100"`
	Description string `json:"description" validate:"max=500"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthPayload is returned by addUser and login.
type AuthPayload struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type AuthResult struct {
	Valid  bool
	UserID string
}

// Identity is the authenticated caller of a single request.
type Identity struct {
	UserID    int64
	Username  string
	Email     string
	SessionID string
}
