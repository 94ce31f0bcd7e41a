package session

import "errors"

var (
	// ErrNoCredential is returned when rehydration is attempted without a
	// persisted bearer credential.
	ErrNoCredential = errors.New("session: no persisted credential")
	// ErrStaleEpoch is returned when a response arrives after the session
	// it belongs to was already invalidated or replaced.
	ErrStaleEpoch = errors.New("session: response from a stale session epoch")
)
