package test

import (
	"strings"

	"github.com/google/uuid"
)

// RandomLogin returns a unique merchant login.
func RandomLogin() string {
	return "merchant-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// RandomPassword returns a password that satisfies the registration policy.
func RandomPassword() string {
	return uuid.NewString()
}

// RandomOrderID returns an id shaped like the storefront order ids the service receives.
func RandomOrderID() string {
	return "ord_" + uuid.NewString()
}
