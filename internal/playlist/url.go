package playlist

import (
	"net/url"
	"strings"
)

// allowedSchemes is the stream-endpoint scheme allowlist from spec.md §3.
var allowedSchemes = map[string]struct{}{
	"http": {}, "https": {}, "rtmp": {}, "rtsp": {}, "mms": {}, "mmsh": {}, "rtp": {},
}

// blockedExtensions rejects URLs that plainly point at a document, image,
// or markup asset rather than a stream (spec.md §4.2).
var blockedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".ico", ".svg", ".webp",
	".html", ".htm", ".php", ".asp", ".aspx", ".jsp", ".css", ".js",
	".json", ".xml", ".txt", ".pdf", ".doc", ".docx", ".zip", ".rar",
	".7z", ".tar", ".gz",
}

var blockedHosts = map[string]struct{}{
	"localhost": {}, "127.0.0.1": {}, "0.0.0.0": {},
}

// validCandidateURL strips surrounding ASCII quotes and validates the
// result against the scheme/extension/host rules spec.md §4.2 requires for
// a channel's link. It returns the cleaned URL and whether it is valid.
func validCandidateURL(raw string) (string, bool) {
	cleaned := strings.Trim(strings.TrimSpace(raw), `"'`)
	if cleaned == "" {
		return "", false
	}

	u, err := url.Parse(cleaned)
	if err != nil || !u.IsAbs() {
		return "", false
	}

	if _, ok := allowedSchemes[strings.ToLower(u.Scheme)]; !ok {
		return "", false
	}

	host := u.Hostname()
	if len(host) < 3 {
		return "", false
	}
	if _, blocked := blockedHosts[strings.ToLower(host)]; blocked {
		return "", false
	}

	lowerPath := strings.ToLower(u.Path)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return "", false
		}
	}

	return cleaned, true
}
