package auth

import (
	"net/url"
	"strings"
)

// SafeRedirect resolves a post-login callback URL against the application's
// base origin. Root-relative paths are joined onto base; absolute URLs pass
// through only when same-origin. Everything else, including schemeless or
// unparseable input, falls back to base (open redirect prevention).
func SafeRedirect(raw, base string) string {
	if raw == "" {
		return base
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return strings.TrimRight(base, "/") + raw
	}
	target, err := url.Parse(raw)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return base
	}
	origin, err := url.Parse(base)
	if err != nil {
		return base
	}
	if target.Scheme == origin.Scheme && target.Host == origin.Host {
		return raw
	}
	return base
}
