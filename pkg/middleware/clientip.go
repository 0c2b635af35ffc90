package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP address from the request. It checks
// X-Forwarded-For (first hop) and X-Real-IP before falling back to RemoteAddr.
// The result is caller-controlled and only fit for logging and tracing; use
// PeerIP for anything that enforces a limit.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}

	return PeerIP(r)
}

// PeerIP returns the host part of the socket peer address. Forwarding headers
// are ignored.
func PeerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
