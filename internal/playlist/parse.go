// Package playlist implements the forgiving M3U parser and writer: text in,
// ordered []types.Channel out, and back again. Both directions are pure
// functions of their input/output byte streams — no network access, no
// shared state — grounded on the teacher proxy's hand-rolled EXTINF scanner
// (work/parser/m3u8.go's ParseEXTINF), generalized to the full
// attribute/EXTGRP/URL-validation algorithm spec.md §4.2 requires.
package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"m3uclean/internal/types"
)

const maxURLLookahead = 5

// Parse reads an M3U/M3U8 playlist from r and returns its channels in
// source order. Malformed #EXTINF entries are skipped silently — the
// parser is maximally forgiving, per spec.md §4.2 — but a read failure on
// r itself is reported as an IO error.
func Parse(r io.Reader) ([]types.Channel, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, types.NewError(types.ErrIO, "playlist", err)
	}

	globalEPG := extractGlobalEPG(lines)

	var channels []types.Channel
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		if line == "" {
			i++
			continue
		}
		if !hasEXTINFPrefix(line) {
			i++
			continue
		}

		fields := parseEXTINF(line)
		link, groupOverride, consumed := findURL(lines, i+1)
		if link == "" {
			i++
			continue
		}

		channels = append(channels, buildChannel(len(channels), line, fields, link, groupOverride, globalEPG))
		i += consumed + 1
	}

	return channels, nil
}

// ParseString is a convenience wrapper around Parse for in-memory text.
func ParseString(text string) ([]types.Channel, error) {
	return Parse(strings.NewReader(text))
}

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	return lines, nil
}

func hasEXTINFPrefix(line string) bool {
	return len(line) >= 7 && strings.EqualFold(line[:7], "#EXTINF")
}

// extractGlobalEPG pulls x-tvg-url/url-tvg off the leading #EXTM3U header
// line, if the first non-empty line is one.
func extractGlobalEPG(lines []string) string {
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if len(line) < 7 || !strings.EqualFold(line[:7], "#EXTM3U") {
			return ""
		}
		recognized := make(map[string]string)
		extra := make(map[string]string)
		scanAttributes(line[7:], recognized, extra)
		if v := recognized["x-tvg-url"]; v != "" {
			return v
		}
		return recognized["url-tvg"]
	}
	return ""
}

// findURL scans forward from start (up to maxURLLookahead lines) for the
// URL line belonging to the #EXTINF entry at start-1, honoring an
// intervening #EXTGRP override and ignoring other comment/blank lines. It
// returns the validated URL (empty if none found), any EXTGRP group-name
// override, and how many lines were consumed (so the caller can resume
// scanning past the URL line).
func findURL(lines []string, start int) (link string, groupOverride string, consumed int) {
	for offset := 0; offset < maxURLLookahead && start+offset < len(lines); offset++ {
		line := strings.TrimSpace(lines[start+offset])

		switch {
		case line == "":
			continue
		case strings.HasPrefix(strings.ToUpper(line), "#EXTGRP:"):
			groupOverride = strings.TrimSpace(line[len("#EXTGRP:"):])
			continue
		case strings.HasPrefix(line, "#"):
			continue
		default:
			if candidate, ok := validCandidateURL(line); ok {
				return candidate, groupOverride, offset + 1
			}
			return "", groupOverride, offset + 1
		}
	}
	return "", groupOverride, maxURLLookahead
}

func buildChannel(id int, rawLine string, fields extinfFields, link, groupOverride, globalEPG string) types.Channel {
	name := fields.Display
	if name == "" {
		name = fields.Recognized["tvg-name"]
	}
	if name == "" {
		name = rawLine
	}

	group := fields.Recognized["group-title"]
	if groupOverride != "" {
		group = groupOverride
	}

	epg := fields.Recognized["x-tvg-url"]
	if epg == "" {
		epg = fields.Recognized["url-tvg"]
	}
	if epg == "" {
		epg = globalEPG
	}

	return types.Channel{
		ID:              id,
		Name:            name,
		Link:            link,
		GroupName:       group,
		TVGID:           fields.Recognized["tvg-id"],
		TVGName:         fields.Recognized["tvg-name"],
		TVGLogo:         fields.Recognized["tvg-logo"],
		EPGURL:          epg,
		ExtraAttributes: fields.Extra,
	}
}
