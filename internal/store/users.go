package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// normUsername trims surrounding whitespace; usernames are case-sensitive.
func normUsername(s string) string { return strings.TrimSpace(s) }

// CreateUser inserts a new user with a hashed password. Username and mobile
// number must both be unique.
func (p *Postgres) CreateUser(ctx context.Context, username, mobile, password string) (User, error) {
	username = normUsername(username)
	if username == "" || mobile == "" || password == "" {
		return User{}, errors.New("missing username, mobile or password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (username, mobile, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, mobile, created_at
	`, username, mobile, string(hash))

	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.Mobile, &u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}

// FindUserByUsername returns the user plus the hashed password for login
// verification.
func (p *Postgres) FindUserByUsername(ctx context.Context, username string) (User, string, error) {
	username = normUsername(username)

	row := p.pool.QueryRow(ctx, `
		SELECT id, username, mobile, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)

	var u User
	var hash string
	var created time.Time
	if err := row.Scan(&u.ID, &u.Username, &u.Mobile, &hash, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, "", ErrNotFound
		}
		return User{}, "", err
	}
	u.CreatedAt = created
	return u, hash, nil
}

// VerifyUser checks username + password match
func (p *Postgres) VerifyUser(ctx context.Context, username, password string) (User, error) {
	u, hash, err := p.FindUserByUsername(ctx, username)
	if err != nil {
		return User{}, errors.New("invalid credentials")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, errors.New("invalid credentials")
	}

	return u, nil
}
