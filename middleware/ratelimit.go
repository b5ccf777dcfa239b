package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	authguard "github.com/threatplane/authguard"
)

// EmailExtractor pulls the account identifier a request is targeting, for
// routes where it is visible without consuming the body (a header, a form
// value, a path segment). Return "" when unknown; the guard then checks
// the IP key alone.
type EmailExtractor func(r *http.Request) string

// RateLimitGuard rejects requests from locked-out ip/email pairs with 429
// and a Retry-After header. The check consumes no attempt.
//
// A limiter backend failure lets the request through: the login handler
// repeats the check on its own and is the authoritative gate.
func RateLimitGuard(engine *authguard.Engine, extract EmailExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}

			email := ""
			if extract != nil {
				email = extract(r)
			}

			status, err := engine.RateLimitStatus(r.Context(), ClientIP(r), email)
			if err == nil && status.Locked {
				retryAfter := int(time.Until(status.LockedUntil) / time.Second)
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				http.Error(w, "too many attempts", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP extracts the remote host from a request, without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
