// Package cache provides the TTL response cache for fusion search.
// Entries are keyed by a normalized request fingerprint so equivalent
// requests (case, whitespace, source ordering) reuse one entry.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint derives the deterministic cache key for a search request.
// The query is lowercased and trimmed, and sources are deduplicated and
// sorted, so logically identical requests always map to the same key.
func Fingerprint(query, mode string, sources []string) string {
	normalized := strings.ToLower(strings.TrimSpace(query))

	seen := make(map[string]struct{}, len(sources))
	uniq := make([]string, 0, len(sources))
	for _, s := range sources {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		uniq = append(uniq, s)
	}
	sort.Strings(uniq)

	// NUL separators prevent ambiguity between adjacent parts.
	parts := append([]string{normalized, mode}, uniq...)
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:16])
}
