package middleware

import (
	"net"
	"net/http"

	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/httputil"
	"github.com/lorenzoarduinoh/cancha-leconte-sub001/internal/ratelimit"
	"github.com/rs/zerolog"
)

// RateLimit throttles by client IP and path. A broken limiter backend lets
// traffic through; throttling is protection, not a dependency.
func RateLimit(limiter ratelimit.Limiter, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
				allowed = true
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				httputil.TooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP trusts chi's RealIP middleware to have rewritten RemoteAddr when
// forwarding headers are present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
