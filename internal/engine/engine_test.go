package engine

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m3uclean/internal/config"
)

func TestRunEndToEndDedupesProbesAndWrites(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp2t")
		w.Write(bytes(0x47, 188))
	}))
	defer srv.Close()

	// The parser rejects 127.0.0.1 links, so the playlist names a regular
	// host and the engine's client dials the test server for it.
	streamURL := "http://stream.example/a"
	playlist := "#EXTM3U\n" +
		"#EXTINF:-1 tvg-id=\"1\" group-title=\"News\",Channel One\n" +
		streamURL + "\n" +
		"#EXTINF:-1 tvg-id=\"1\" group-title=\"News\",Channel One Duplicate\n" +
		streamURL + "\n"

	srcPath := filepath.Join(t.TempDir(), "in.m3u")
	if err := os.WriteFile(srcPath, []byte(playlist), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	destPath := filepath.Join(t.TempDir(), "out.m3u")

	cfg := config.Default()
	cfg.Sources = []string{srcPath}
	cfg.Dest = destPath
	cfg.MaxConcurrency = 4
	cfg.Timeout = 5 * time.Second

	eng := New(cfg)
	eng.client.HTTP.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(ctx, network, srv.Listener.Addr().String())
		},
	}
	report, outputs, err := eng.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.OriginalCount)
	assert.Equal(t, 1, report.DoublesRemoved)
	assert.Equal(t, 1, report.WorkingCount)
	require.Equal(t, []string{destPath}, outputs)

	written, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "Channel One")
}

func TestRunSkipsValidationWhenConfigured(t *testing.T) {
	playlist := "#EXTM3U\n#EXTINF:-1,Dead Channel\nhttp://unreachable.invalid/stream\n"
	srcPath := filepath.Join(t.TempDir(), "in.m3u")
	if err := os.WriteFile(srcPath, []byte(playlist), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg := config.Default()
	cfg.Sources = []string{srcPath}
	cfg.Dest = filepath.Join(t.TempDir(), "out.m3u")
	cfg.SkipValidation = true

	eng := New(cfg)
	report, _, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.WorkingCount != 1 {
		t.Errorf("expected the unreachable channel to survive when validation is skipped, got %d", report.WorkingCount)
	}
}

func TestRunReturnsErrorWhenNoSources(t *testing.T) {
	cfg := config.Default()
	eng := New(cfg)
	if _, _, err := eng.Run(context.Background()); err == nil {
		t.Fatal("expected an error when no sources are configured")
	}
}

func TestDefaultDestUsesTempDirAndSourceBasename(t *testing.T) {
	got := defaultDest([]string{"/home/user/lists/My Playlist.m3u"})
	if !strings.HasSuffix(got, "-Cleaned.m3u") {
		t.Errorf("expected -Cleaned.m3u suffix, got %q", got)
	}
	if !strings.HasPrefix(got, os.TempDir()) {
		t.Errorf("expected temp-dir prefix, got %q", got)
	}
}

func TestDefaultDestFallsBackToPlaylistWithNoSources(t *testing.T) {
	got := defaultDest(nil)
	want := filepath.Join(os.TempDir(), "playlist-Cleaned.m3u")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func bytes(fill byte, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = fill
	}
	return b
}
