// Package user implements account signup/login, profile lookup, and the
// win-count scoreboard backing the bridge's auth endpoints.
package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a lookup finds no matching user.
var ErrNotFound = errors.New("user: not found")

// ErrConflict is returned by Signup when the username is already taken.
var ErrConflict = errors.New("user: username already taken")

// ErrInvalidCredentials is returned by Login on a bad username/password pair.
var ErrInvalidCredentials = errors.New("user: invalid credentials")

// Profile is the public-facing shape of a user record.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}

// LeaderboardEntry is one row of Scoreboard's result.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}

// Store is the persistence and authentication surface spec.md §4.10 calls
// for: signup, login, profile lookup by token, the scoreboard, and
// crediting a win.
type Store interface {
	Signup(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (token string, profile Profile, err error)
	Me(ctx context.Context, token string) (Profile, error)
	Scoreboard(ctx context.Context) ([]LeaderboardEntry, error)
	AwardWinner(ctx context.Context, username string) error
}
