package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"m3uclean/internal/httpclient"
	"m3uclean/internal/types"
)

func TestSanitizeOriginCollapsesSeparators(t *testing.T) {
	got := SanitizeOrigin("http://example.com/playlists/my list.m3u?token=abc")
	if got == "" {
		t.Fatal("expected a non-empty sanitized name")
	}
	for _, bad := range []string{"/", ":", "?", "="} {
		if contains(got, bad) {
			t.Errorf("sanitized name %q still contains %q", got, bad)
		}
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestDecodeTextHandlesUTF8BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("#EXTM3U\n")...)
	got := decodeText(raw)
	if got != "#EXTM3U\n" {
		t.Errorf("got %q, want BOM stripped", got)
	}
}

func TestDecodeTextFallsBackToRawWhenNoBOM(t *testing.T) {
	raw := []byte("#EXTM3U\n")
	got := decodeText(raw)
	if got != "#EXTM3U\n" {
		t.Errorf("got %q, want unchanged input", got)
	}
}

func TestResolveReadsLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlist.m3u")
	if err := os.WriteFile(path, []byte("#EXTM3U\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	text, err := Resolve(context.Background(), httpclient.New(0), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "#EXTM3U\n" {
		t.Errorf("got %q", text)
	}
}

func TestResolveMissingFileReturnsSourceNotFound(t *testing.T) {
	_, err := Resolve(context.Background(), httpclient.New(0), filepath.Join(t.TempDir(), "missing.m3u"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	pe, ok := err.(*types.PipelineError)
	if !ok {
		t.Fatalf("expected *types.PipelineError, got %T", err)
	}
	if pe.Kind != types.ErrSourceNotFound {
		t.Errorf("kind = %v, want ErrSourceNotFound", pe.Kind)
	}
}
