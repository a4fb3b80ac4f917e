// Package cacheutil provides a bounded, memoizing wrapper around the pure
// normalizer functions for large playlists where the same raw name/URL
// string recurs often (regional variants of one feed mirrored across many
// sources). It is pure performance: normalizer.URL/normalizer.Name stay
// independently callable and this layer never changes their result, only
// how often they're recomputed. Built on github.com/maypok86/otter/v2, a
// dependency the teacher proxy already carries in go.mod but does not yet
// exercise anywhere in its own tree.
package cacheutil

import (
	"github.com/maypok86/otter/v2"

	"m3uclean/internal/normalizer"
)

// NormalizeCache memoizes URL and Name normalization results up to a fixed
// capacity. It is safe for concurrent use.
type NormalizeCache struct {
	urls  *otter.Cache[string, string]
	names *otter.Cache[string, string]
}

// New builds a NormalizeCache sized to capacity entries per function. A
// capacity of 0 or less disables memoization (both lookups fall through to
// the pure functions directly).
func New(capacity int) *NormalizeCache {
	if capacity <= 0 {
		return nil
	}
	return &NormalizeCache{
		urls:  otter.Must(&otter.Options[string, string]{MaximumSize: capacity}),
		names: otter.Must(&otter.Options[string, string]{MaximumSize: capacity}),
	}
}

// URL returns normalizer.URL(s), memoized. Safe to call on a nil receiver
// (falls back to the uncached pure function).
func (c *NormalizeCache) URL(s string) string {
	if c == nil {
		return normalizer.URL(s)
	}
	if v, ok := c.urls.GetIfPresent(s); ok {
		return v
	}
	v := normalizer.URL(s)
	c.urls.Set(s, v)
	return v
}

// Name returns normalizer.Name(s), memoized. Safe to call on a nil
// receiver (falls back to the uncached pure function).
func (c *NormalizeCache) Name(s string) string {
	if c == nil {
		return normalizer.Name(s)
	}
	if v, ok := c.names.GetIfPresent(s); ok {
		return v
	}
	v := normalizer.Name(s)
	c.names.Set(s, v)
	return v
}
