package model

import "time"

// User is a merchant operating one or more stores.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
