package sanitizer

import (
	"net/url"
	"strings"
)

// SafeRedirect returns target when it is a relative path on this site, and
// fallback otherwise, so a post-login redirect cannot leave the site.
func SafeRedirect(target, fallback string) string {
	target = strings.TrimSpace(target)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return u.RequestURI()
}
