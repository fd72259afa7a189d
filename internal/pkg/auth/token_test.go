package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestNewSignedTokenStrategyDefaults(t *testing.T) {
	s := NewSignedTokenStrategy("secret", Options{})
	assert.Equal(t, defaultTokenTTL, s.TTL())
	assert.Equal(t, defaultIssuer, s.issuer)
	assert.NotNil(t, s.now)

	s = NewSignedTokenStrategy("secret", Options{TTL: time.Hour, Issuer: "ops"})
	assert.Equal(t, time.Hour, s.TTL())
	assert.Equal(t, "ops", s.issuer)
}

func TestIssueAndParse(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewSignedTokenStrategy("secret", Options{TTL: time.Minute, Now: fixedClock(now)})

	token, err := s.IssueToken(42)
	require.NoError(t, err)
	require.Contains(t, token, ".")

	userID, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	claims, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Claims{Subject: 42, Issuer: "autoorder", IssuedAt: now.Unix(), ExpiresAt: now.Add(time.Minute).Unix()}, *claims)
}

func TestIssueTokenRejectsAnonymousUser(t *testing.T) {
	_, err := NewSignedTokenStrategy("secret", Options{}).IssueToken(0)
	assert.Error(t, err)
}

func TestParseTokenExpired(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewSignedTokenStrategy("secret", Options{TTL: time.Minute, Now: fixedClock(now)})
	token, err := issuer.IssueToken(7)
	require.NoError(t, err)

	later := NewSignedTokenStrategy("secret", Options{TTL: time.Minute, Now: fixedClock(now.Add(time.Minute))})
	_, err = later.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenRejectsForgeries(t *testing.T) {
	s := NewSignedTokenStrategy("secret", Options{})
	token, err := s.IssueToken(7)
	require.NoError(t, err)
	body, _, _ := strings.Cut(token, ".")

	forge := func(c Claims) string {
		payload, err := json.Marshal(c)
		require.NoError(t, err)
		b := base64.RawURLEncoding.EncodeToString(payload)
		return b + "." + s.sign(b)
	}
	future := time.Now().Add(time.Hour).Unix()

	cases := map[string]string{
		"empty":           "",
		"no signature":    body,
		"empty body":      "." + s.sign(""),
		"tampered":        body + ".tampered",
		"other secret":    mustIssue(t, NewSignedTokenStrategy("other", Options{}), 7),
		"other issuer":    forge(Claims{Subject: 7, Issuer: "elsewhere", ExpiresAt: future}),
		"zero subject":    forge(Claims{Subject: 0, Issuer: defaultIssuer, ExpiresAt: future}),
		"not json":        "bm90LWpzb24." + s.sign("bm90LWpzb24"),
		"bad base64 body": "!!!." + s.sign("!!!"),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.ParseToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func mustIssue(t *testing.T, s *SignedTokenStrategy, userID int64) string {
	t.Helper()
	token, err := s.IssueToken(userID)
	require.NoError(t, err)
	return token
}
