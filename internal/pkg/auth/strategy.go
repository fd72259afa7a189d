package auth

import "time"

// Strategy issues and verifies the bearer tokens merchants use against the API.
type Strategy interface {
	IssueToken(userID int64) (string, error)
	ParseToken(token string) (int64, error)
	TTL() time.Duration
}

// Options tunes token issuing.
type Options struct {
	TTL    time.Duration
	Issuer string
	// Now overrides the clock, tests only.
	Now func() time.Time
}
