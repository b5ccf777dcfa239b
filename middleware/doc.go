// Package middleware exposes an HTTP adapter for the engine's rate-limit
// gate.
//
// [RateLimitGuard] answers locked-out clients with 429 and a Retry-After
// header before the login body is processed, so hammering a locked pair
// costs one limiter read instead of a full login pipeline pass.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement rate-limit logic itself; the decision comes from
// Engine.RateLimitStatus, and Engine.Login re-checks authoritatively.
//
// # What this package must NOT do
//
//   - Consume login attempts (the guard is a read-only pre-check).
//   - Access the attempt store directly (Engine handles I/O).
package middleware
