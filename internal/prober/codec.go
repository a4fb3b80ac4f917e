package prober

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"

	"m3uclean/internal/types"
)

// codecPrefixes maps a lowercase CODECS= tag prefix to its human-readable
// label (spec.md §4.4 stream-info extraction table).
var codecPrefixes = []struct {
	prefix string
	label  string
}{
	{"avc1", "H.264"},
	{"hvc1", "HEVC"},
	{"hev1", "HEVC"},
	{"vp9", "VP9"},
	{"av01", "AV1"},
	{"mp4a", "AAC"},
	{"ac-3", "AC3"},
	{"opus", "Opus"},
}

// mapCodecTag resolves one CODECS= comma-separated entry to its label,
// or "" if unrecognized.
func mapCodecTag(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, c := range codecPrefixes {
		if strings.HasPrefix(tag, c.prefix) {
			return c.label
		}
	}
	return ""
}

// manifestStreamInfo extracts RESOLUTION=, BANDWIDTH= and CODECS= from an
// HLS/DASH manifest prefix. It tries github.com/grafov/m3u8's DecodeFrom
// first, mirroring the teacher's grafov-first structure in ParseM3U8; since
// the sniff window truncates the manifest mid-tag more often than not, a
// hand-rolled line scan over #EXT-X-STREAM-INF is the required fallback
// when grafov's decoder errors on the incomplete input.
func manifestStreamInfo(buf []byte) *types.StreamInfo {
	if info := decodeWithGrafov(buf); info != nil {
		return info
	}
	return decodeStreamInfFallback(buf)
}

func decodeWithGrafov(buf []byte) *types.StreamInfo {
	playlist, listType, err := m3u8.DecodeFrom(bufio.NewReader(bytes.NewReader(buf)), false)
	if err != nil || listType != m3u8.MASTER {
		return nil
	}
	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return nil
	}

	for _, variant := range master.Variants {
		if variant == nil {
			continue
		}
		info := &types.StreamInfo{Bitrate: int(variant.Bandwidth)}
		if w, h, ok := parseResolution(variant.Resolution); ok {
			info.Width, info.Height = w, h
		}
		applyCodecsTag(info, variant.Codecs)
		if info.Width > 0 || info.Bitrate > 0 || info.VideoCodec != "" || info.AudioCodec != "" {
			return info
		}
	}
	return nil
}

// decodeStreamInfFallback hand-scans lines for "#EXT-X-STREAM-INF:" and
// pulls its attributes directly, tolerating a manifest truncated
// mid-variant (the grafov decoder requires a well-formed trailing URI
// line, which a 4 kB sniff window frequently cuts off).
func decodeStreamInfFallback(buf []byte) *types.StreamInfo {
	scanner := bufio.NewScanner(bytes.NewReader(buf))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(strings.ToUpper(line), "#EXT-X-STREAM-INF:") {
			continue
		}
		attrs := line[len("#EXT-X-STREAM-INF:"):]
		info := &types.StreamInfo{}
		if res := attrValue(attrs, "RESOLUTION"); res != "" {
			if w, h, ok := parseResolution(res); ok {
				info.Width, info.Height = w, h
			}
		}
		if bw := attrValue(attrs, "BANDWIDTH"); bw != "" {
			if n, err := strconv.Atoi(bw); err == nil {
				info.Bitrate = n
			}
		}
		applyCodecsTag(info, attrValue(attrs, "CODECS"))
		if info.Width > 0 || info.Bitrate > 0 || info.VideoCodec != "" || info.AudioCodec != "" {
			return info
		}
	}
	return nil
}

func applyCodecsTag(info *types.StreamInfo, codecs string) {
	codecs = strings.Trim(codecs, `"`)
	if codecs == "" {
		return
	}
	for _, tag := range strings.Split(codecs, ",") {
		label := mapCodecTag(tag)
		if label == "" {
			continue
		}
		switch label {
		case "H.264", "HEVC", "VP9", "AV1":
			if info.VideoCodec == "" {
				info.VideoCodec = label
			}
		default:
			if info.AudioCodec == "" {
				info.AudioCodec = label
			}
		}
	}
}

func parseResolution(s string) (w, h int, ok bool) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	width, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	height, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return width, height, true
}

// attrValue pulls KEY=value or KEY="value" out of an attribute-list
// string (e.g. an #EXT-X-STREAM-INF tag body).
func attrValue(attrs, key string) string {
	upper := strings.ToUpper(attrs)
	idx := strings.Index(upper, key+"=")
	if idx == -1 {
		return ""
	}
	rest := attrs[idx+len(key)+1:]
	if strings.HasPrefix(rest, `"`) {
		end := strings.Index(rest[1:], `"`)
		if end == -1 {
			return ""
		}
		return rest[1 : 1+end]
	}
	end := strings.IndexAny(rest, ",\r\n")
	if end == -1 {
		return rest
	}
	return rest[:end]
}
