// Package totp implements time-based one-time password verification
// (RFC 6238 over the RFC 4226 HOTP construction) for the MFA step of the
// login flow, plus the secret generation and provisioning helpers used at
// enrollment time.
package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const secretBytes = 20

const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Config holds code derivation parameters. Zero fields fall back to the
// RFC defaults: 6 digits, 30 second steps, SHA1, one step of drift either
// side.
type Config struct {
	Digits    int
	Period    int
	Skew      int
	Algorithm string
	Issuer    string
}

// Verifier derives and checks one-time codes for a shared secret.
type Verifier struct {
	config Config
}

// NewVerifier creates a Verifier, filling unset config fields with the
// RFC defaults.
func NewVerifier(cfg Config) *Verifier {
	if cfg.Digits <= 0 {
		cfg.Digits = 6
	}
	if cfg.Period <= 0 {
		cfg.Period = 30
	}
	if cfg.Skew < 0 {
		cfg.Skew = 0
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = "SHA1"
	}
	return &Verifier{config: cfg}
}

// Verify reports whether the submitted token matches a code derived from
// the base32 secret at the current time step or within the configured
// drift window. Checking adjacent steps absorbs small clock drift between
// the server and the authenticator app.
//
// Verification fails closed: an undecodable secret, a malformed token, or
// a derivation failure all report false. Comparison against each candidate
// is constant-time.
func (v *Verifier) Verify(secretBase32, token string, now time.Time) bool {
	if v == nil {
		return false
	}

	key := DecodeSecret(secretBase32)
	if len(key) == 0 {
		return false
	}

	submitted := stripWhitespace(token)
	if len(submitted) != v.config.Digits || !isDigits(submitted) {
		return false
	}

	baseCounter := now.Unix() / int64(v.config.Period)
	for step := -v.config.Skew; step <= v.config.Skew; step++ {
		counter := baseCounter + int64(step)
		if counter < 0 {
			continue
		}
		candidate, err := hotpCode(key, counter, v.config.Digits, v.config.Algorithm)
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(submitted)) == 1 {
			return true
		}
	}

	return false
}

// GenerateSecret returns a fresh random secret, base32-encoded without
// padding, for MFA enrollment.
func (v *Verifier) GenerateSecret() (string, error) {
	raw := make([]byte, secretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// ProvisionURI builds the otpauth:// URI that authenticator apps consume
// when enrolling an account.
func (v *Verifier) ProvisionURI(secretBase32, account string) string {
	issuer := v.config.Issuer
	label := url.PathEscape(issuer + ":" + account)

	values := url.Values{}
	values.Set("secret", secretBase32)
	values.Set("issuer", issuer)
	values.Set("period", strconv.Itoa(v.config.Period))
	values.Set("digits", strconv.Itoa(v.config.Digits))
	values.Set("algorithm", strings.ToUpper(v.config.Algorithm))

	return "otpauth://totp/" + label + "?" + values.Encode()
}

// DecodeSecret decodes a base32 secret leniently: lower case is accepted,
// padding is stripped, and characters outside the RFC 4648 alphabet are
// dropped rather than rejected. Trailing bits short of a full byte are
// discarded. Stored secrets come from assorted enrollment tools, some of
// which insert spaces or dashes for readability.
func DecodeSecret(secret string) []byte {
	normalized := strings.TrimRight(strings.ToUpper(secret), "=")

	var (
		out  []byte
		bits uint
		acc  uint32
	)
	for _, ch := range normalized {
		value := strings.IndexRune(base32Alphabet, ch)
		if value < 0 {
			continue
		}
		acc = acc<<5 | uint32(value)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(acc>>bits))
		}
	}
	return out
}

// hotpCode derives one HOTP value: HMAC over the 8-byte big-endian
// counter, dynamic truncation, reduction modulo 10^digits, left-padded
// with zeros to exactly digits characters.
func hotpCode(key []byte, counter int64, digits int, algorithm string) (string, error) {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	hf, err := hmacFunc(algorithm)
	if err != nil {
		return "", err
	}
	mac := hmac.New(hf, key)
	_, _ = mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	value := (int(sum[offset])&0x7f)<<24 |
		(int(sum[offset+1])&0xff)<<16 |
		(int(sum[offset+2])&0xff)<<8 |
		(int(sum[offset+3]) & 0xff)

	mod := 1
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, value%mod), nil
}

func hmacFunc(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(algorithm) {
	case "", "SHA1":
		return sha1.New, nil
	case "SHA256":
		return sha256.New, nil
	case "SHA512":
		return sha512.New, nil
	default:
		return nil, errors.New("unsupported totp algorithm")
	}
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func isDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return len(s) > 0
}
