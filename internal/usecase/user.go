package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-matches/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

var ErrInvalidUsername = errors.New("username must be 1 to 32 characters")

const maxUsernameLength = 32

type UserUseCase interface {
	Register(ctx context.Context, username string) (entity.User, error)
	Exists(ctx context.Context, userID int64) error
}

type userRepo interface {
	Save(ctx context.Context, username string) (entity.User, error)
	FindByID(ctx context.Context, id int64) (entity.User, error)
}

type userUseCase struct {
	repo userRepo
}

func NewUserUseCase(repo userRepo) UserUseCase {
	return &userUseCase{
		repo: repo,
	}
}

func (that *userUseCase) Register(ctx context.Context, username string) (entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength {
		return entity.User{}, ErrInvalidUsername
	}

	user, err := that.repo.Save(ctx, username)
	if errors.Is(err, apperror.ErrUsernameAlreadyExists) {
		return entity.User{}, err
	}
	if err != nil {
		return entity.User{}, fmt.Errorf("failed to save user into storage: %w", err)
	}

	return user, nil
}

// Exists fails with USER_NOT_FOUND unless userID belongs to a registered account.
func (that *userUseCase) Exists(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return apperror.ErrUserNotFound
	}

	_, err := that.repo.FindByID(ctx, userID)
	if errors.Is(err, apperror.ErrUserNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to find user into storage: %w", err)
	}

	return nil
}
