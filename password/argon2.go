package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Config tunes the argon2id KDF. Memory is in KiB.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config follows the second RFC 9106 recommendation
// (64 MiB, t=3), which fits typical login-service memory budgets.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2id hashes passwords with argon2id in PHC string format.
type Argon2id struct {
	config Argon2Config
}

var defaultArgon2id = &Argon2id{config: DefaultArgon2Config()}

// NewArgon2id creates an Argon2id hasher, filling zero config fields from
// [DefaultArgon2Config].
func NewArgon2id(cfg Argon2Config) *Argon2id {
	def := DefaultArgon2Config()
	if cfg.Memory == 0 {
		cfg.Memory = def.Memory
	}
	if cfg.Time == 0 {
		cfg.Time = def.Time
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = def.Parallelism
	}
	if cfg.SaltLength == 0 {
		cfg.SaltLength = def.SaltLength
	}
	if cfg.KeyLength == 0 {
		cfg.KeyLength = def.KeyLength
	}
	return &Argon2id{config: cfg}
}

// Hash implements [Hasher].
func (a *Argon2id) Hash(password string) (string, error) {
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify implements [Hasher]. The stored parameters drive re-derivation so
// hashes created under older settings still verify.
func (a *Argon2id) Verify(password, encoded string) (bool, error) {
	parsed, err := parseArgon2(encoded)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey(
		[]byte(password),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	return subtle.ConstantTimeCompare(key, parsed.key) == 1, nil
}

// NeedsRehash implements [Hasher].
func (a *Argon2id) NeedsRehash(encoded string) bool {
	parsed, err := parseArgon2(encoded)
	if err != nil {
		return true
	}
	return parsed.memory < a.config.Memory ||
		parsed.time < a.config.Time ||
		parsed.parallelism < a.config.Parallelism ||
		uint32(len(parsed.key)) < a.config.KeyLength
}

type argon2Hash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseArgon2(encoded string) (argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return argon2Hash{}, ErrUnknownHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return argon2Hash{}, ErrUnknownHashFormat
	}
	if version != argon2.Version {
		return argon2Hash{}, errors.New("unsupported argon2 version")
	}

	var parsed argon2Hash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &parsed.memory, &parsed.time, &parsed.parallelism); err != nil {
		return argon2Hash{}, ErrUnknownHashFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return argon2Hash{}, ErrUnknownHashFormat
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return argon2Hash{}, ErrUnknownHashFormat
	}
	parsed.salt, parsed.key = salt, key

	return parsed, nil
}
