package cacheutil

import (
	"testing"

	"m3uclean/internal/normalizer"
)

func TestNewWithNonPositiveCapacityReturnsNil(t *testing.T) {
	if c := New(0); c != nil {
		t.Error("expected New(0) to return nil (memoization disabled)")
	}
	if c := New(-1); c != nil {
		t.Error("expected New(-1) to return nil (memoization disabled)")
	}
}

func TestNilCacheFallsBackToPureFunctions(t *testing.T) {
	var c *NormalizeCache
	url := "HTTP://Example.com:80/stream?token=abc"
	if got, want := c.URL(url), normalizer.URL(url); got != want {
		t.Errorf("nil-receiver URL() = %q, want %q", got, want)
	}
	if got, want := c.Name("Channel HD"), normalizer.Name("Channel HD"); got != want {
		t.Errorf("nil-receiver Name() = %q, want %q", got, want)
	}
}

func TestCacheMatchesPureFunctionResults(t *testing.T) {
	c := New(16)

	url := "http://example.com/live/mystream.m3u8?session=1"
	if got, want := c.URL(url), normalizer.URL(url); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
	// second call should hit the memoized path and still agree.
	if got, want := c.URL(url), normalizer.URL(url); got != want {
		t.Errorf("URL() on repeat = %q, want %q", got, want)
	}

	name := "ESPN HD"
	if got, want := c.Name(name), normalizer.Name(name); got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
}

func TestCacheDistinguishesURLsAndNames(t *testing.T) {
	c := New(16)
	a := c.URL("http://host-a.example/stream")
	b := c.URL("http://host-b.example/stream")
	if a == b {
		t.Errorf("expected distinct normalized URLs for distinct hosts, got %q for both", a)
	}
}
