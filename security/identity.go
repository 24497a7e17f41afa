package security

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// identityHashLength bounds the stored identity to a short prefix; full
// digests are unnecessary for dedup/rate-limit keys and leak more entropy
// than needed.
const identityHashLength = 16

// ClientIP extracts the caller's address, preferring reverse-proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// First entry is the originating client
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HashIdentity returns the privacy-preserving representation of a caller
// address. The raw address must never be persisted; every store and limiter
// key works with this value instead.
func HashIdentity(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])[:identityHashLength]
}
