package scheduler

import (
	"context"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// acquireHostSlot blocks (with light polling, bounded by ctx) until
// link's host has fewer than maxPerHost in-flight probes, then reserves
// a slot. It is a soft fairness limit layered on top of the pool's hard
// global cap (spec.md §9's "basic host fairness" ambient addition),
// grounded on the teacher's xsync.MapOf per-entity counters in
// work/watcher/watcher.go and work/proxy/stream.go.
func acquireHostSlot(perHost *xsync.MapOf[string, *int32], link string, maxPerHost int, ctx context.Context) {
	host := hostOf(link)
	if host == "" {
		return
	}
	for {
		counter, _ := perHost.LoadOrStore(host, new(int32))
		if atomic.AddInt32(counter, 1) <= int32(maxPerHost) {
			return
		}
		atomic.AddInt32(counter, -1)

		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func releaseHostSlot(perHost *xsync.MapOf[string, *int32], link string) {
	host := hostOf(link)
	if host == "" {
		return
	}
	if counter, ok := perHost.Load(host); ok {
		atomic.AddInt32(counter, -1)
	}
}

func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
