package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid auth token")

const (
	defaultTokenTTL = 24 * time.Hour
	defaultIssuer   = "autoorder"
)

// Claims is the signed token payload.
type Claims struct {
	Subject   int64  `json:"sub"`
	Issuer    string `json:"iss"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// SignedTokenStrategy encodes Claims as base64url JSON followed by an HMAC-SHA256 signature.
type SignedTokenStrategy struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSignedTokenStrategy builds a strategy signing with secret.
func NewSignedTokenStrategy(secret string, opts Options) *SignedTokenStrategy {
	s := &SignedTokenStrategy{
		secret: []byte(secret),
		ttl:    opts.TTL,
		issuer: opts.Issuer,
		now:    opts.Now,
	}
	if s.ttl <= 0 {
		s.ttl = defaultTokenTTL
	}
	if s.issuer == "" {
		s.issuer = defaultIssuer
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *SignedTokenStrategy) IssueToken(userID int64) (string, error) {
	if userID <= 0 {
		return "", errors.New("issue token: user id must be positive")
	}
	now := s.now()
	payload, err := json.Marshal(Claims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + s.sign(body), nil
}

func (s *SignedTokenStrategy) ParseToken(token string) (int64, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return 0, err
	}
	return claims.Subject, nil
}

// Verify checks the signature, issuer and expiry of token.
func (s *SignedTokenStrategy) Verify(token string) (*Claims, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return nil, ErrInvalidToken
	}
	if !hmac.Equal([]byte(s.sign(body)), []byte(sig)) {
		return nil, ErrInvalidToken
	}

	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Subject <= 0 || claims.Issuer != s.issuer {
		return nil, ErrInvalidToken
	}
	if !s.now().Before(time.Unix(claims.ExpiresAt, 0)) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *SignedTokenStrategy) TTL() time.Duration {
	return s.ttl
}

func (s *SignedTokenStrategy) sign(body string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
