package prober

import (
	"strings"

	"github.com/grafana/regexp"
)

const (
	sniffSoftMax  = 2 * 1024
	sniffHardMax  = 4 * 1024
	sniffMinFast  = 512
	sniffAttempts = 3
)

// errorPageRe matches the case-insensitive "not found" / "access denied"
// phrases anywhere in the sniffed prefix (spec.md §4.4 step 5); the
// leading-token checks below it stay plain byte/prefix comparisons since
// they never need a regex engine.
var errorPageRe = regexp.MustCompile(`(?i)not found|access denied`)

// recognizedMediaTypes is the Content-Type media-type fallback set from
// spec.md §4.4 step 8.
var recognizedMediaTypes = map[string]struct{}{
	"video/mp2t": {}, "video/mp4": {}, "video/mpeg": {}, "video/x-mpegurl": {},
	"video/x-ms-asf": {}, "video/x-msvideo": {}, "video/x-flv": {}, "video/webm": {},
	"video/3gpp": {}, "video/quicktime": {}, "audio/mpeg": {}, "audio/aac": {},
	"audio/mp4": {}, "audio/x-mpegurl": {}, "audio/x-scpls": {},
	"application/vnd.apple.mpegurl": {}, "application/x-mpegurl": {},
	"application/dash+xml": {}, "application/octet-stream": {}, "binary/octet-stream": {},
}

// isErrorPage reports whether buf's decoded prefix looks like an HTML/XML
// error document rather than stream data (spec.md §4.4 step 5).
func isErrorPage(buf []byte) bool {
	prefix := buf
	if len(prefix) > sniffSoftMax {
		prefix = prefix[:sniffSoftMax]
	}
	trimmed := strings.TrimSpace(string(prefix))
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "<!doctype"):
		return true
	case strings.HasPrefix(lower, "<html"):
		return true
	case strings.HasPrefix(lower, "<?xml") && strings.Contains(lower, "<html"):
		return true
	case strings.HasPrefix(trimmed, "404"), strings.HasPrefix(lower, "403"),
		strings.HasPrefix(lower, "error"):
		return true
	}
	return errorPageRe.MatchString(lower)
}

// hasPositiveSignature reports whether buf begins with one of the
// recognized stream container magic byte sequences, or the HLS/DASH
// manifest text signature (spec.md §4.4 step 6).
func hasPositiveSignature(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if buf[0] == 0x47 {
		return true
	}
	if len(buf) >= 3 && string(buf[:3]) == "ID3" {
		return true
	}
	if len(buf) >= 2 && buf[0] == 0xFF && (buf[1]&0xE0) == 0xE0 {
		return true
	}
	if len(buf) >= 2 && buf[0] == 0xFF && (buf[1]&0xF0) == 0xF0 {
		return true
	}
	if len(buf) >= 3 && string(buf[:3]) == "FLV" {
		return true
	}
	if strings.HasPrefix(strings.TrimSpace(string(buf)), "#EXTM3U") {
		return true
	}
	return false
}

// looksLikeBinary reports whether more than 10% of the first 100 bytes of
// buf are non-printable (spec.md §4.4 step 7), the last-resort positive
// signal before falling back to Content-Type.
func looksLikeBinary(buf []byte) bool {
	n := len(buf)
	if n > 100 {
		n = 100
	}
	if n == 0 {
		return false
	}
	nonPrintable := 0
	for _, b := range buf[:n] {
		if b < 0x20 && b != '\r' && b != '\n' && b != '\t' {
			nonPrintable++
		}
	}
	return float64(nonPrintable)/float64(n) > 0.1
}

// acceptableContentType reports whether contentType's media-type (ignoring
// any "; charset=..." parameters) is in the recognized set.
func acceptableContentType(contentType string) bool {
	mediaType := contentType
	if idx := strings.Index(mediaType, ";"); idx != -1 {
		mediaType = mediaType[:idx]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	_, ok := recognizedMediaTypes[mediaType]
	return ok
}

// magicByteCodec derives a best-effort codec/container label purely from
// the sniffed buffer, used when no HLS manifest tags are present (spec.md
// §4.4 "From magic bytes fall back to codec labels").
func magicByteCodec(buf []byte) (videoCodec, audioCodec string) {
	switch {
	case len(buf) > 0 && buf[0] == 0x47:
		return "MPEG-TS", ""
	case len(buf) >= 3 && string(buf[:3]) == "FLV":
		return "FLV", ""
	case len(buf) >= 3 && string(buf[:3]) == "ID3":
		return "", "MP3/AAC"
	case len(buf) >= 2 && buf[0] == 0xFF && (buf[1]&0xE0) == 0xE0:
		return "", "MP3"
	case len(buf) >= 2 && buf[0] == 0xFF && (buf[1]&0xF0) == 0xF0:
		return "", "AAC"
	default:
		return "", ""
	}
}
