package logging

import (
	"net/url"
	"strings"
)

// SanitizeURL strips userinfo, query and fragment from an absolute URL so
// region names and credentials stay out of logs. Anything without a scheme
// and host only loses its query and fragment; it is not re-encoded.
func SanitizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme == "" && u.Host == "") {
		if i := strings.IndexAny(s, "?#"); i >= 0 {
			return s[:i]
		}
		return s
	}
	clean := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path, RawPath: u.RawPath}
	return clean.String()
}
