package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"m3uclean/internal/types"
)

// Write renders channels as a well-formed M3U file at path, creating the
// parent directory if needed and truncating any existing file (spec.md
// §4.6).
func Write(path string, channels []types.Channel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.NewError(types.ErrWriteFailed, path, err)
	}

	var b strings.Builder
	renderPlaylist(&b, channels)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return types.NewError(types.ErrWriteFailed, path, err)
	}
	return nil
}

// WriteSplit writes one file per GroupName ("Uncategorized" for channels
// with no group) under dir, reusing the same per-channel rendering as
// Write. It returns the group name -> written file path mapping.
func WriteSplit(dir string, channels []types.Channel) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.NewError(types.ErrWriteFailed, dir, err)
	}

	byGroup := make(map[string][]types.Channel)
	for _, ch := range channels {
		group := ch.GroupName
		if group == "" {
			group = "Uncategorized"
		}
		byGroup[group] = append(byGroup[group], ch)
	}

	written := make(map[string]string, len(byGroup))
	for group, chans := range byGroup {
		path := filepath.Join(dir, sanitizeFileName(group)+".m3u")
		if err := Write(path, chans); err != nil {
			return nil, err
		}
		written[group] = path
	}
	return written, nil
}

func renderPlaylist(b *strings.Builder, channels []types.Channel) {
	b.WriteString(headerLine(channels))
	b.WriteString("\n")

	for _, ch := range channels {
		writeChannel(b, ch)
	}
}

func headerLine(channels []types.Channel) string {
	for _, ch := range channels {
		if ch.EPGURL != "" {
			return fmt.Sprintf(`#EXTM3U x-tvg-url="%s"`, ch.EPGURL)
		}
	}
	return "#EXTM3U"
}

func writeChannel(b *strings.Builder, ch types.Channel) {
	if strings.HasPrefix(ch.Name, "#EXTINF") {
		b.WriteString(ch.Name)
		b.WriteString("\n")
		writeGroupAndURL(b, ch, ch.Name)
		return
	}

	attrs := channelAttrs(ch)
	display := ch.TVGName
	if display == "" {
		display = ch.Name
	}

	line := fmt.Sprintf("#EXTINF:-1%s,%s", attrs, display)
	b.WriteString(line)
	b.WriteString("\n")
	writeGroupAndURL(b, ch, line)
}

func writeGroupAndURL(b *strings.Builder, ch types.Channel, extinfLine string) {
	if ch.GroupName != "" && !strings.Contains(extinfLine, "group-title=") {
		b.WriteString("#EXTGRP:")
		b.WriteString(ch.GroupName)
		b.WriteString("\n")
	}
	b.WriteString(ch.Link)
	b.WriteString("\n")
}

// channelAttrs renders the recognized key="value" attributes (plus any
// extra ones captured during parsing) in a stable order, prefixed with a
// leading space, ready to be appended directly after "#EXTINF:-1".
func channelAttrs(ch types.Channel) string {
	var b strings.Builder

	writeAttr(&b, "tvg-id", ch.TVGID)
	writeAttr(&b, "tvg-name", ch.TVGName)
	writeAttr(&b, "tvg-logo", ch.TVGLogo)
	writeAttr(&b, "tvg-language", ch.Language)
	writeAttr(&b, "group-title", ch.GroupName)

	keys := make([]string, 0, len(ch.ExtraAttributes))
	for k := range ch.ExtraAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeAttr(&b, k, ch.ExtraAttributes[k])
	}

	return b.String()
}

func writeAttr(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(value)
	b.WriteString(`"`)
}

func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer(
		" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_",
		"?", "_", `"`, "", "<", "_", ">", "_", "|", "_",
	)
	sanitized := replacer.Replace(name)
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	return strings.Trim(sanitized, "_")
}
