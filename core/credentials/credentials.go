// Package credentials persists the client's durable session state: the
// bearer access token and the serialized user record. The two values are
// always written and cleared together.
package credentials

import (
	"encoding/json"
	"errors"
	"strings"
)

// Storage keys, fixed by the backend contract.
const (
	KeyAccessToken = "access_token"
	KeyUser        = "user"
)

var (
	// ErrNotFound is returned by Load when no credentials are persisted.
	ErrNotFound = errors.New("credentials: not found")
	// ErrEmptyToken is returned by Save when the access token is missing.
	ErrEmptyToken = errors.New("credentials: access token is required")
)

// Credentials is the durable client-side session state.
// User is kept opaque; downstream consumers decode it themselves.
type Credentials struct {
	AccessToken string          `json:"access_token"`
	User        json.RawMessage `json:"user"`
}

// Store persists credentials across process restarts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the persisted credentials or ErrNotFound.
	Load() (Credentials, error)
	// Save writes both values atomically.
	Save(creds Credentials) error
	// Clear removes both values. Clearing an empty store is not an error.
	Clear() error
}

// NewFromPath selects a store implementation for the configured
// credentials path (apiclient.Config.CredentialsPath): empty keeps
// credentials in memory, a .db or .sqlite path opens the SQLite store,
// anything else is treated as a JSON file path.
func NewFromPath(path string) (Store, error) {
	switch {
	case path == "":
		return NewMemory(), nil
	case strings.HasSuffix(path, ".db"), strings.HasSuffix(path, ".sqlite"):
		return NewSQLite(path)
	default:
		return NewFile(path), nil
	}
}
