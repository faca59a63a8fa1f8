package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/bigMackD/Glyloop-sub002/internal/domain"
	"github.com/bigMackD/Glyloop-sub002/internal/repository"
)

// UserUsecase reads and updates the user's profile settings.
type UserUsecase struct {
	users repository.UserRepository
}

func NewUserUsecase(users repository.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

func (u *UserUsecase) GetProfile(ctx context.Context, userID string) domain.Result[*domain.User] {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Failure[*domain.User](domain.NotFoundError("user not found"))
		}
		return domain.Failure[*domain.User](domain.ExternalError(fmt.Sprintf("find user: %v", err)))
	}
	return domain.Success(user)
}

// UpdateTirTarget replaces the time-in-range target, in mg/dL.
func (u *UserUsecase) UpdateTirTarget(ctx context.Context, userID string, lower, upper int) domain.Error {
	target := domain.NewTirRange(lower, upper)
	if target.IsFailure() {
		return target.Err()
	}
	if err := u.users.UpdateTirTarget(ctx, userID, target.Value()); err != nil {
		return domain.ExternalError(fmt.Sprintf("update tir target: %v", err))
	}
	return domain.ErrNone
}
