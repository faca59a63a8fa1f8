package repository

import (
	"context"
	"time"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
)

type UserRepository interface {
	FindOrCreate(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdateTirTarget(ctx context.Context, userID string, target domain.TirRange) error
	CreateSignInToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	// ClaimSignInToken atomically marks an unused, unexpired token as used
	// and returns it; a second claim of the same token fails.
	ClaimSignInToken(ctx context.Context, tokenHash string) (*domain.SignInToken, error)
}
