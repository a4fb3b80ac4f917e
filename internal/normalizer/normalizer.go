// Package normalizer implements the pure URL/name canonicalization rules
// that back deduplication equality (spec.md §4.1). Every function here is a
// pure function of its input — no I/O, no shared state — so the pipeline
// can call them directly or through the memoizing cache in cacheutil.
package normalizer

import (
	"sort"
	"strings"

	"github.com/grafana/regexp"
)

// trackingPrefixes are the lowercase query-parameter prefixes dropped
// during URL normalization (spec.md §4.1 step 3).
var trackingPrefixes = []string{
	"utm_", "session", "sid=", "token=", "t=", "ts=", "timestamp=",
	"_=", "random=", "r=", "cache=", "nocache=",
}

// qualitySuffixRe matches a trailing quality tag, optionally surrounded by
// whitespace, case-insensitively (spec.md §4.1 step 3 of normalize_name).
var qualitySuffixRe = regexp.MustCompile(`(?i)\s*\b(hd|sd|fhd|uhd|4k|1080p|720p|480p|360p)\b\s*$`)

// nonWordRe matches any rune that is not alphanumeric, underscore, or
// whitespace (spec.md §4.1 step 4).
var nonWordRe = regexp.MustCompile(`[^a-z0-9_\s]`)

// whitespaceRunRe collapses runs of whitespace to a single space.
var whitespaceRunRe = regexp.MustCompile(`\s+`)

// genericNames is the set of names too generic to be considered
// "meaningful" for dedup purposes (spec.md §4.1).
var genericNames = map[string]struct{}{
	"channel": {}, "test": {}, "live": {}, "stream": {}, "tv": {},
	"video": {}, "audio": {}, "radio": {}, "news": {}, "sports": {},
	"movie": {}, "music": {}, "entertainment": {},
}

// URL canonicalizes s for link-equality comparisons: trims and lowercases,
// strips a single trailing slash (from the path too when a query string
// follows it), drops tracking query parameters and
// sorts the rest, folds default ports, and folds away a "www." host
// prefix. Empty input returns empty string.
func URL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = strings.TrimSuffix(s, "/")

	if idx := strings.Index(s, "?"); idx != -1 {
		base := strings.TrimSuffix(s[:idx], "/")
		query := s[idx+1:]
		s = base + joinFilteredQuery(query)
	}

	s = strings.ReplaceAll(s, ":80/", "/")
	s = strings.ReplaceAll(s, ":443/", "/")
	s = strings.ReplaceAll(s, "://www.", "://")

	return s
}

func joinFilteredQuery(query string) string {
	params := strings.Split(query, "&")
	kept := make([]string, 0, len(params))
	for _, p := range params {
		if p == "" || hasTrackingPrefix(p) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return ""
	}
	sort.Strings(kept)
	return "?" + strings.Join(kept, "&")
}

func hasTrackingPrefix(param string) bool {
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(param, prefix) {
			return true
		}
	}
	return false
}

// Name canonicalizes s for name-equality comparisons: strips a leading
// "#EXTINF...," prefix if present, trims and lowercases, drops a trailing
// quality suffix, folds non-word runes to spaces, and collapses whitespace.
func Name(s string) string {
	if len(s) >= 7 && strings.EqualFold(s[:7], "#EXTINF") {
		if idx := strings.Index(s, ","); idx != -1 {
			s = s[idx+1:]
		}
	}

	s = strings.ToLower(strings.TrimSpace(s))
	s = qualitySuffixRe.ReplaceAllString(s, "")
	s = nonWordRe.ReplaceAllString(s, " ")
	s = whitespaceRunRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// IsMeaningfulName reports whether a normalized name is specific enough to
// participate in name-collision dedup: longer than 3 characters and not in
// the generic-name set (spec.md §4.1).
func IsMeaningfulName(normalized string) bool {
	if len(normalized) <= 3 {
		return false
	}
	_, generic := genericNames[normalized]
	return !generic
}
