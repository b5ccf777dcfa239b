package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes passwords with the bcrypt KDF.
type Bcrypt struct {
	cost int
}

var defaultBcrypt = &Bcrypt{cost: bcrypt.DefaultCost}

// NewBcrypt creates a Bcrypt hasher. Costs outside bcrypt's supported
// range fall back to the library default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash implements [Hasher].
func (b *Bcrypt) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify implements [Hasher]. A mismatch is a clean false; only parse and
// backend failures surface as errors.
func (b *Bcrypt) Verify(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// NeedsRehash implements [Hasher]. Foreign or unparsable hashes report
// true so an upgrade-on-login pass migrates them.
func (b *Bcrypt) NeedsRehash(encoded string) bool {
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil {
		return true
	}
	return cost < b.cost
}
