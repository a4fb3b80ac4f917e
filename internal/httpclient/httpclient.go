// Package httpclient builds the single shared *http.Client used for both
// source downloads and stream probes, grounded on the teacher proxy's
// HeaderSettingClient: one client, connection pooling on, headers injected
// uniformly per request rather than per call site.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	kgzip "github.com/klauspost/compress/gzip"
)

// ProbeUserAgent is the fixed User-Agent spec.md §4.4 requires for probe
// requests (and the one the teacher's sources configure by default).
const ProbeUserAgent = "VLC/3.0.18 LibVLC/3.0.18"

// Client wraps http.Client to inject the fixed probe headers on every
// request and to expose a gzip-aware text fetch for the download
// collaborator.
type Client struct {
	HTTP *http.Client
}

// New builds a Client with the connection-pooling transport settings the
// teacher proxy uses, and an overall per-request timeout taken from the
// "-timeout" flag (caps the whole request, body read included; the probe's
// body-sniff deadline is a separate one that starts when headers arrive —
// see internal/prober).
func New(timeout time.Duration) *Client {
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableKeepAlives:     false,
				ResponseHeaderTimeout: timeout,
			},
		},
	}
}

// NewProbeRequest builds the exact GET request shape spec.md §4.4 demands:
// fixed User-Agent, Accept, Connection and Icy-MetaData headers, no others.
func (c *Client) NewProbeRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ProbeUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Icy-MetaData", "1")
	return req, nil
}

// Probe issues the probe GET request and returns the raw response for the
// caller (internal/prober) to sniff; the caller owns closing resp.Body.
func (c *Client) Probe(ctx context.Context, url string) (*http.Response, error) {
	req, err := c.NewProbeRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.HTTP.Do(req)
}

// FetchText downloads url and returns its body as a string, transparently
// decompressing a gzip-encoded response with klauspost/compress (faster
// than stdlib gzip) when the server sets Content-Encoding: gzip. Requesting
// gzip explicitly here — rather than relying on net/http's built-in
// transparent handling — is what lets us pick the faster decoder; net/http
// only auto-decompresses when it set the Accept-Encoding header itself.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", ProbeUserAgent)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := kgzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("failed to decode gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	return string(body), nil
}
