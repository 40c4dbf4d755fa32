package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrExists          = errors.New("username already exists")
	ErrNotFound        = errors.New("user not found")
	ErrWrongPassword   = errors.New("incorrect password")
	ErrAlreadyFriends  = errors.New("friend already in the friend list")
	ErrNotMutual       = errors.New("both users must have each other as friends")
	ErrNoActiveSession = errors.New("friend does not have an active session")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	session_id    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS friends (
	username TEXT NOT NULL,
	friend   TEXT NOT NULL,
	PRIMARY KEY (username, friend)
);
`

// Store persists accounts, friend lists and the per-user active-session
// pointer. The relay core never touches it.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if necessary) the sqlite database at path.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open account db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, logger: logger.With().Str("component", "account").Logger()}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Create registers a new account with a bcrypt-hashed password.
func (s *Store) Create(ctx context.Context, username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, string(hash))
	if isConstraintErr(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info().Str("user", username).Msg("account created")
	return nil
}

// Login verifies a username/password pair. It distinguishes an unknown
// user from a wrong password the way the account surface reports them.
func (s *Store) Login(ctx context.Context, username, password string) error {
	var hash string
	err := s.db.QueryRowContext(ctx,
		"SELECT password_hash FROM users WHERE username = ?", username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("query user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrWrongPassword
	}
	return nil
}

// AddFriend records friend on username's friend list. Friendship is
// one-directional; mutuality is checked only when joining a friend's
// session.
func (s *Store) AddFriend(ctx context.Context, username, friend string) error {
	for _, u := range []string{username, friend} {
		ok, err := s.exists(ctx, u)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO friends (username, friend) VALUES (?, ?)", username, friend)
	if isConstraintErr(err) {
		return ErrAlreadyFriends
	}
	if err != nil {
		return fmt.Errorf("insert friend: %w", err)
	}
	return nil
}

// Friends returns username's friend list. Unknown users get an empty
// list, not an error.
func (s *Store) Friends(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT friend FROM friends WHERE username = ? ORDER BY friend", username)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	friends := make([]string, 0)
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// SetActiveSession points username at the collaboration session it is
// currently hosting.
func (s *Store) SetActiveSession(ctx context.Context, username, sessionID string) error {
	return s.updateSession(ctx, username, sessionID)
}

// ClearActiveSession drops username's active-session pointer.
func (s *Store) ClearActiveSession(ctx context.Context, username string) error {
	return s.updateSession(ctx, username, "")
}

func (s *Store) updateSession(ctx context.Context, username, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET session_id = ? WHERE username = ?", sessionID, username)
	if err != nil {
		return fmt.Errorf("update session pointer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session pointer: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FriendSession returns friend's active session id, provided both users
// list each other as friends and friend currently has one.
func (s *Store) FriendSession(ctx context.Context, username, friend string) (string, error) {
	for _, u := range []string{username, friend} {
		ok, err := s.exists(ctx, u)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrNotFound
		}
	}

	var mutual int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM friends a
		JOIN friends b ON a.username = b.friend AND a.friend = b.username
		WHERE a.username = ? AND a.friend = ?`,
		username, friend).Scan(&mutual)
	if err != nil {
		return "", fmt.Errorf("query friendship: %w", err)
	}
	if mutual == 0 {
		return "", ErrNotMutual
	}

	var sessionID string
	err = s.db.QueryRowContext(ctx,
		"SELECT session_id FROM users WHERE username = ?", friend).Scan(&sessionID)
	if err != nil {
		return "", fmt.Errorf("query session pointer: %w", err)
	}
	if sessionID == "" {
		return "", ErrNoActiveSession
	}
	return sessionID, nil
}

func (s *Store) exists(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}
	return n > 0, nil
}

func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
