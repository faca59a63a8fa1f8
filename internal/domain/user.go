package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrTokenInvalid = errors.New("token is invalid or expired")
)

// User is an account identified by email. Sign-in is passwordless: a
// single-use emailed token is exchanged for a JWT.
type User struct {
	ID        string
	Email     string
	TirTarget TirRange
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SignInToken is the stored hash of an emailed magic link token.
type SignInToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
