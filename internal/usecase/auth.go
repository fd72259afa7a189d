package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainErrors "github.com/polkiloo/autoorder/internal/domain/errors"
	"github.com/polkiloo/autoorder/internal/domain/model"
	"github.com/polkiloo/autoorder/internal/domain/repository"
	pkgAuth "github.com/polkiloo/autoorder/internal/pkg/auth"
)

// AuthUseCase registers merchants and issues the tokens that scope every order,
// credential and integration to one user.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
}

func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: strategy}
}

// Logins are case-insensitive.
func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

func (u *AuthUseCase) Register(ctx context.Context, login, password string) (*model.User, string, error) {
	login = normalizeLogin(login)
	if login == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	if err := pkgAuth.ValidatePassword(password); err != nil {
		return nil, "", fmt.Errorf("%w: %w", domainErrors.ErrInvalidCredentials, err)
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	usr, err := u.users.Create(ctx, login, hash)
	if err != nil {
		return nil, "", err
	}
	return u.withToken(usr)
}

func (u *AuthUseCase) Authenticate(ctx context.Context, login, password string) (*model.User, string, error) {
	login = normalizeLogin(login)
	if login == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		if errors.Is(err, pkgAuth.ErrPasswordMismatch) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("compare password: %w", err)
	}
	return u.withToken(usr)
}

func (u *AuthUseCase) withToken(usr *model.User) (*model.User, string, error) {
	token, err := u.tokens.IssueToken(usr.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return usr, token, nil
}

func (u *AuthUseCase) ParseToken(token string) (int64, error) {
	if token == "" {
		return 0, pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}

// TokenTTL is how long an issued token stays valid.
func (u *AuthUseCase) TokenTTL() time.Duration {
	return u.tokens.TTL()
}
