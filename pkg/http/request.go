package http

import (
	"net"
	"net/http"
	"strings"
)

// ExtractClientIP returns the best-effort client address used as the attempt
// origin. Forwarding headers are consulted first, falling back to
// RemoteAddr; "unknown" when nothing usable is present. The origin is an
// opaque logging string, never a trust decision.
func ExtractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		for _, part := range parts {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	if r.RemoteAddr != "" {
		if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return ip
		}
		return r.RemoteAddr
	}

	return "unknown"
}
