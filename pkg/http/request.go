package http

import (
	"net/http"
	"strings"
)

// ClientIdentifier extracts the identifier used for rate limiting and
// audit records. Precedence: CF-Connecting-IP, then the first entry of
// X-Forwarded-For, then the literal "unknown".
//
// All clients lacking either header share the "unknown" bucket. The
// site sits behind Cloudflare, so in practice the header is always
// there; revisit if it is ever deployed without the proxy.
func ClientIdentifier(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For may carry a chain; the first hop is the client.
		parts := strings.SplitN(xff, ",", 2)
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	return "unknown"
}

// UserAgent returns the request's User-Agent header, bounded by the
// caller's truncation.
func UserAgent(r *http.Request) string {
	return r.Header.Get("User-Agent")
}

// BearerToken extracts the token from a "Bearer "-prefixed
// Authorization header. It returns "" when the header is absent or not
// Bearer-shaped.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
