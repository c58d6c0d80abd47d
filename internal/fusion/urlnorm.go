package fusion

import (
	"net/url"
	"strings"
)

// trackingParams are query parameters stripped during URL normalization.
// Campaign trackers vary per click, so leaving them in would defeat
// cross-provider dedup for what is the same document.
var trackingParams = map[string]bool{
	"gclid":   true,
	"fbclid":  true,
	"msclkid": true,
	"igshid":  true,
	"mc_cid":  true,
	"mc_eid":  true,
}

func isTrackingParam(key string) bool {
	return trackingParams[key] || strings.HasPrefix(key, "utm_")
}

// NormalizeURL canonicalizes a result URL for deduplication: scheme and
// host are lowercased, a trailing slash on the path is dropped, and
// tracking parameters are removed. Unparseable URLs fall back to a
// trimmed form of the raw string so they still dedup exact matches.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = stripTracking(u.RawQuery)
	return u.String()
}

// stripTracking removes tracking parameters while preserving the order
// of the remaining ones.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		key := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			key = pair[:i]
		}
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if !isTrackingParam(key) {
			kept = append(kept, pair)
		}
	}
	return strings.Join(kept, "&")
}
