package identity

import "time"

// User represents a registered wallet owner.
type User struct {
	ID           string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Credentials carries the caller-supplied username and password.
type Credentials struct {
	Username string
	Password string
}
