// Package urlcheck rejects unusable URLs before any fetch is attempted and
// optionally probes whether a host answers at all.
package urlcheck

import (
	"net/url"
	"strings"
)

// IsWellFormed reports whether raw is an absolute http(s) URL whose host
// has at least two dot-separated labels. It performs no I/O and never
// panics.
func IsWellFormed(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Hostname()
	if host == "" || !strings.Contains(host, ".") {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

// Normalize trims raw and prepends https:// when no scheme is present.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	if strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}
