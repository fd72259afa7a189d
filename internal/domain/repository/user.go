package repository

import (
	"context"

	"github.com/polkiloo/autoorder/internal/domain/model"
)

// UserRepository stores merchant accounts.
type UserRepository interface {
	// Create returns ErrAlreadyExists when login is taken.
	Create(ctx context.Context, login, passwordHash string) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
}
