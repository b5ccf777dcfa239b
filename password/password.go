// Package password provides salted adaptive password hashing for the login
// flow. Bcrypt is the storage format inherited from the upstream dashboard;
// argon2id is available for new deployments, with transparent upgrade on
// login when the user store supports rewriting hashes.
package password

import (
	"errors"
	"strings"
)

// ErrUnknownHashFormat indicates a stored hash that none of the supported
// families can parse.
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// Hasher produces and checks hashes of one family.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
	// NeedsRehash reports whether a stored hash falls short of the
	// hasher's current parameters and should be regenerated.
	NeedsRehash(encoded string) bool
}

// Verify checks a password against a stored hash of any supported family,
// dispatching on the hash prefix. Stored rows can mix families while an
// upgrade-on-login migration is in flight.
func Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return defaultArgon2id.Verify(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"),
		strings.HasPrefix(encoded, "$2b$"),
		strings.HasPrefix(encoded, "$2y$"):
		return defaultBcrypt.Verify(password, encoded)
	default:
		return false, ErrUnknownHashFormat
	}
}
