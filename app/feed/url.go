package feed

import (
	"net/url"
	"strings"
)

// NormalizeURL strips tracking parameters (utm_*, ref, source) and anything
// after a "?source=" marker. The result is the deduplication key of an
// article and normalizing it again is a no-op.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err == nil && u.RawQuery != "" {
		u.RawQuery = stripTrackingParams(u.RawQuery)
		u.ForceQuery = false
		raw = u.String()
	}

	if i := strings.Index(raw, "?source="); i >= 0 {
		raw = raw[:i]
	}

	return raw
}

// stripTrackingParams filters the raw query string in place so the
// surviving parameters keep their order and encoding.
func stripTrackingParams(rawQuery string) string {
	kept := make([]string, 0, 4)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if isTrackingParam(key) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	return strings.HasPrefix(key, "utm_") || key == "ref" || key == "source"
}

// HostOf returns the link's host without a leading "www.".
func HostOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Absolutize resolves src against base. Absolute http(s) URLs and
// unresolvable input are returned unchanged.
func Absolutize(base, src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}

	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return src
	}

	baseURL, err := url.Parse(base)
	if err != nil || base == "" {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}

	return baseURL.ResolveReference(ref).String()
}
