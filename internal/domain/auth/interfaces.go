// internal/domain/auth/interfaces.go
package auth

import (
	"context"
	"time"
)

type Validator interface {
	Validate(interface{}) error
}

type AuthStore interface {
	CreateSession(ctx context.Context, userID string, duration time.Duration) (string, error)
	GetSession(ctx context.Context, sessionID string) *AuthResult
	DeleteSession(ctx context.Context, sessionID string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *SignupRequest) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}

// Announcer is told about every account that was created.
type Announcer interface {
	AnnounceMember(ctx context.Context, user *User) error
}
