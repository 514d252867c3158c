package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySubject = errors.New("token subject is required")
)

// Principal is the client identified by a bearer token: the browser
// extension, a script or the CLI.
type Principal struct {
	Subject   string    `json:"subject"`
	TokenID   string    `json:"token_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
