package model

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizePageURL reduces a URL to the scheme+host+path form used as the
// storage key for a page. Query string and fragment are stripped so that
// tracking parameters and in-page anchors do not fork a page's highlight
// list. Scheme and host are lowercased; the path is kept as-is because
// path case is significant on most servers.
func NormalizePageURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parsing page URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("page URL %q has no scheme or host", raw)
	}

	norm := url.URL{
		Scheme: strings.ToLower(u.Scheme),
		Host:   strings.ToLower(u.Host),
		Path:   u.Path,
	}
	return norm.String(), nil
}
