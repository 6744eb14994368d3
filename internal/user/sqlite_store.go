package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SQLiteStore is the libSQL-backed Store implementation. Its schema and
// query style mirror the teacher's admin document store, collapsed to the
// single flat `users` table spec.md §6.4 specifies.
type SQLiteStore struct {
	db     *sql.DB
	tokens *TokenSigner
}

// NewSQLiteStore creates the users table if absent and returns a Store.
func NewSQLiteStore(ctx context.Context, db *sql.DB, tokens *TokenSigner) (*SQLiteStore, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			wins          INTEGER NOT NULL DEFAULT 0,
			created_at    TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("creating users table: %w", err)
	}
	return &SQLiteStore{db: db, tokens: tokens}, nil
}

func (s *SQLiteStore) Signup(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)
	`, uuid.New().String(), username, string(hash))
	if err != nil {
		if isUniqueConstraintErr(err) {
			return ErrConflict
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Login(ctx context.Context, username, password string) (string, Profile, error) {
	var id, passwordHash string
	var wins int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash, wins FROM users WHERE username = ?
	`, username).Scan(&id, &passwordHash, &wins)
	if errors.Is(err, sql.ErrNoRows) {
		return "", Profile{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", Profile{}, fmt.Errorf("looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return "", Profile{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(id, username)
	if err != nil {
		return "", Profile{}, err
	}
	return token, Profile{ID: id, Username: username, Wins: wins}, nil
}

func (s *SQLiteStore) Me(ctx context.Context, token string) (Profile, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return Profile{}, err
	}

	var username string
	var wins int
	err = s.db.QueryRowContext(ctx, `
		SELECT username, wins FROM users WHERE id = ?
	`, claims.Subject).Scan(&username, &wins)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("looking up user: %w", err)
	}
	return Profile{ID: claims.Subject, Username: username, Wins: wins}, nil
}

func (s *SQLiteStore) Scoreboard(ctx context.Context) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, wins FROM users ORDER BY wins DESC, username ASC LIMIT 10
	`)
	if err != nil {
		return nil, fmt.Errorf("querying scoreboard: %w", err)
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Wins); err != nil {
			return nil, fmt.Errorf("scanning scoreboard row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AwardWinner(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET wins = wins + 1 WHERE username = ?
	`, username)
	if err != nil {
		return fmt.Errorf("awarding win: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking award result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueConstraintErr reports whether err looks like a SQLite/libSQL
// unique-index violation. The driver surfaces this as a plain string
// rather than a typed error.
func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
