// Package enrich fills in Channel.Category and Channel.Language with
// pure keyword-table lookups over existing metadata (group name, display
// name, tvg-language extra attribute). This is explicitly cosmetic per
// spec.md §1 — it does not interact with dedup or probing, and a channel
// that matches nothing is left with empty Category/Language. Keyword
// matching is grounded on the teacher's series/VOD classification
// regexes in work/filter/filter.go, generalized from two content-type
// regexes to keyword-table lookups for category and language.
package enrich

import (
	"strings"

	"github.com/grafana/regexp"

	"m3uclean/internal/types"
)

var categoryKeywords = []struct {
	category string
	re       *regexp.Regexp
}{
	{"News", regexp.MustCompile(`(?i)news|cnn|bbc\s*news|al\s*jazeera`)},
	{"Sports", regexp.MustCompile(`(?i)sport|espn|fox\s*sports|bein`)},
	{"Movies", regexp.MustCompile(`(?i)movie|cinema|film|vod`)},
	{"Kids", regexp.MustCompile(`(?i)kids|cartoon|disney|nick(jr)?`)},
	{"Music", regexp.MustCompile(`(?i)music|mtv|vh1|vevo`)},
	{"Documentary", regexp.MustCompile(`(?i)docu|discovery|nat\s*geo|history`)},
	{"Entertainment", regexp.MustCompile(`(?i)entertainment|variety|comedy`)},
}

// languageCodes maps a lowercase language name/keyword to its ISO-639-1
// code, checked against tvg-language exactly.
var languageCodes = map[string]string{
	"english": "en", "eng": "en", "en": "en",
	"spanish": "es", "español": "es", "es": "es",
	"french": "fr", "français": "fr", "fr": "fr",
	"german": "de", "deutsch": "de", "de": "de",
	"arabic": "ar", "عربي": "ar", "ar": "ar",
	"portuguese": "pt", "pt": "pt",
	"italian": "it", "it": "it",
	"hindi": "hi", "hi": "hi",
	"turkish": "tr", "tr": "tr",
	"russian": "ru", "ru": "ru",
}

// languageKeywords is an ordered variant of languageCodes' multi-char
// entries, used for free-text scanning over group/display name where
// iteration order must be deterministic and bare two-letter codes would
// produce too many false positives.
var languageKeywords = []struct {
	keyword string
	code    string
}{
	{"english", "en"},
	{"spanish", "es"}, {"español", "es"},
	{"french", "fr"}, {"français", "fr"},
	{"german", "de"}, {"deutsch", "de"},
	{"arabic", "ar"}, {"عربي", "ar"},
	{"portuguese", "pt"},
	{"italian", "it"},
	{"hindi", "hi"},
	{"turkish", "tr"},
	{"russian", "ru"},
}

// Channel returns a copy of ch with Category and Language filled in from
// keyword lookups, leaving fields already set by the playlist untouched.
func Channel(ch types.Channel) types.Channel {
	if ch.Category == "" {
		ch.Category = detectCategory(ch)
	}
	if ch.Language == "" {
		ch.Language = detectLanguage(ch)
	}
	return ch
}

// All applies Channel to every entry in channels, returning a fresh
// slice (channels itself is left untouched, matching the rest of the
// pipeline's copy-on-write convention).
func All(channels []types.Channel) []types.Channel {
	enriched := make([]types.Channel, len(channels))
	for i, ch := range channels {
		enriched[i] = Channel(ch)
	}
	return enriched
}

func detectCategory(ch types.Channel) string {
	haystack := ch.GroupName + " " + ch.Name
	for _, kw := range categoryKeywords {
		if kw.re.MatchString(haystack) {
			return kw.category
		}
	}
	return ""
}

func detectLanguage(ch types.Channel) string {
	if raw, ok := ch.ExtraAttributes["tvg-language"]; ok {
		if code, ok := languageCodes[strings.ToLower(strings.TrimSpace(raw))]; ok {
			return code
		}
	}
	haystack := strings.ToLower(ch.GroupName + " " + ch.Name)
	for _, kw := range languageKeywords {
		if strings.Contains(haystack, kw.keyword) {
			return kw.code
		}
	}
	return ""
}
