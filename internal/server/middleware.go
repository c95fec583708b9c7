package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/hmallory/toytill/internal/backend"
)

// protect chains the rate governor and the app-token check in front of a
// handler. Rate limiting runs first.
func (s *Server) protect(next http.Handler) http.Handler {
	return s.rateLimit(s.authenticate(next))
}

// rateLimit rejects clients over budget with 429. The governor itself fails
// open when its store is unavailable.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.governor != nil && !s.governor.Allow(r.Context(), clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Try again in a minute.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authenticate checks the shared app token.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(backend.AuthHeader)
		if token == "" || token != s.appToken {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey derives the rate-limit bucket key for a request: the first
// forwarded address when present, otherwise the connection's remote host.
func clientKey(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if first, _, ok := strings.Cut(forwarded, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "unknown"
	}
	return host
}
