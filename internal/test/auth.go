package test

import (
	"context"
	"fmt"
	"time"

	pkgAuth "github.com/polkiloo/autoorder/internal/pkg/auth"
)

// HasherStub stores passwords as "hash:<password>" so assertions can read them.
type HasherStub struct {
	HashErr    error
	CompareErr error
}

func (h HasherStub) Hash(password string) (string, error) {
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return "hash:" + password, nil
}

func (h HasherStub) Compare(hash, password string) error {
	switch {
	case h.CompareErr != nil:
		return h.CompareErr
	case hash != "hash:"+password:
		return pkgAuth.ErrPasswordMismatch
	}
	return nil
}

// StrategyStub issues "token-<id>" and parses such tokens back.
// A non-zero Fixed makes every token resolve to that user.
type StrategyStub struct {
	IssueErr error
	Fixed    int64
	Lifetime time.Duration
}

func (s StrategyStub) IssueToken(userID int64) (string, error) {
	if s.IssueErr != nil {
		return "", s.IssueErr
	}
	return fmt.Sprintf("token-%d", userID), nil
}

func (s StrategyStub) ParseToken(token string) (int64, error) {
	if s.Fixed != 0 {
		return s.Fixed, nil
	}
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil || id <= 0 {
		return 0, pkgAuth.ErrInvalidToken
	}
	return id, nil
}

func (s StrategyStub) TTL() time.Duration {
	if s.Lifetime == 0 {
		return time.Hour
	}
	return s.Lifetime
}

// TokenParserStub resolves every token to ID, or fails with Err.
type TokenParserStub struct {
	ID  int64
	Err error
}

func (s TokenParserStub) ParseToken(string) (int64, error) {
	return s.ID, s.Err
}

// AuthFacadeStub answers register and login with Token or Err.
// Calls, when set, collects "login:password" for each request.
type AuthFacadeStub struct {
	Token    string
	Err      error
	UserID   int64
	ParseErr error
	TTL      time.Duration
	Calls    *[]string
}

func (s AuthFacadeStub) issue(login, password string) (string, error) {
	if s.Calls != nil {
		*s.Calls = append(*s.Calls, login+":"+password)
	}
	if s.Err != nil {
		return "", s.Err
	}
	if s.Token == "" {
		return "token", nil
	}
	return s.Token, nil
}

func (s AuthFacadeStub) Register(_ context.Context, login, password string) (string, error) {
	return s.issue(login, password)
}

func (s AuthFacadeStub) Authenticate(_ context.Context, login, password string) (string, error) {
	return s.issue(login, password)
}

func (s AuthFacadeStub) ParseToken(string) (int64, error) {
	if s.ParseErr != nil {
		return 0, s.ParseErr
	}
	if s.UserID == 0 {
		return 1, nil
	}
	return s.UserID, nil
}

func (s AuthFacadeStub) TokenTTL() time.Duration {
	if s.TTL == 0 {
		return time.Hour
	}
	return s.TTL
}

var (
	_ pkgAuth.PasswordHasher = HasherStub{}
	_ pkgAuth.Strategy       = StrategyStub{}
)
