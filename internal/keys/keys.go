// package keys manages API credentials: one key per username, stored in
// SQLite. The server treats the username behind a key as the identity that
// partitions all per-user state.
package keys

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/I-No-oNe/TuneX/internal/shared"
)

// Key is one issued credential.
type Key struct {
	Username  string    `json:"username"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists API keys.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a [Repository] with the given database connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// NewToken returns a URL-safe random token with n bytes of entropy.
func NewToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Add stores an explicit key for a username.
func (r *Repository) Add(username, key string) error {
	if username == "" || key == "" {
		return fmt.Errorf("%w: username and key are required", shared.ErrInvalidInput)
	}

	var exists bool
	if err := r.db.QueryRow("SELECT EXISTS(SELECT 1 FROM api_keys WHERE username = ?)", username).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check for existing key: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", shared.ErrKeyExists, username)
	}

	if _, err := r.db.Exec("INSERT INTO api_keys (username, key, created_at) VALUES (?, ?, ?)", username, key, time.Now()); err != nil {
		return fmt.Errorf("failed to insert key: %w", err)
	}

	return nil
}

// Generate creates, stores, and returns a fresh key for a username.
func (r *Repository) Generate(username string) (string, error) {
	key, err := NewToken(24)
	if err != nil {
		return "", err
	}

	if err := r.Add(username, key); err != nil {
		return "", err
	}

	return key, nil
}

// Remove deletes the key for a username.
func (r *Repository) Remove(username string) error {
	result, err := r.db.Exec("DELETE FROM api_keys WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUnknownUser, username)
	}

	return nil
}

// List returns all issued keys ordered by username.
func (r *Repository) List() ([]Key, error) {
	rows, err := r.db.Query("SELECT username, key, created_at FROM api_keys ORDER BY username ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer rows.Close()

	var out []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.Username, &k.Key, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		out = append(out, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

// Lookup returns the username behind a presented key.
func (r *Repository) Lookup(key string) (string, error) {
	var username string
	err := r.db.QueryRow("SELECT username FROM api_keys WHERE key = ?", key).Scan(&username)
	if err == sql.ErrNoRows {
		return "", shared.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("failed to query key: %w", err)
	}
	return username, nil
}

// Count returns the number of issued keys.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM api_keys").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count keys: %w", err)
	}
	return n, nil
}

// Bootstrap generates an admin key when no keys exist yet, returning the
// new key or an empty string when keys are already present.
func (r *Repository) Bootstrap() (string, error) {
	n, err := r.Count()
	if err != nil {
		return "", err
	}
	if n > 0 {
		return "", nil
	}
	return r.Generate("admin")
}
