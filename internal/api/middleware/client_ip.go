package middleware

import (
	"net/http"
	"strings"
)

// ClientIP extracts the caller's address from proxy headers: the first
// X-Forwarded-For element, then X-Real-IP, then the literal "unknown".
// Best-effort: the values are trusted as-is, no format validation.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	return "unknown"
}
