// Package authguard is the authentication hardening core of the threatplane
// dashboard: credential verification combined with per-identity adaptive
// rate limiting and TOTP-based multi-factor checks.
//
// The package is a library consumed by a request-handling boundary. It owns
// no transport and no persistence: user records, tenant memberships, and
// audit rows live behind caller-supplied interfaces ([UserStore],
// [TenantMembershipStore], [AuditRecorder]), and session issuance after a
// successful login belongs to the caller's session layer.
//
// # Architecture boundaries
//
// authguard is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (LoginRequest, Identity, AuditEvent). Attempt
// tracking lives under internal/ and is never exported; TOTP derivation and
// password hashing are small public subpackages.
//
// # Concurrency
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Each login attempt is a single
// synchronous pipeline; the only shared mutable state is the rate-limit
// attempt store, which serializes per-key access internally.
package authguard
