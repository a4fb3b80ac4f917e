// Package dedup implements the single-pass duplicate suppression step
// between the Parser and the Probe Scheduler: two plain string sets, no
// concurrency, order-preserving survivors (spec.md §4.3).
package dedup

import (
	"m3uclean/internal/normalizer"
	"m3uclean/internal/types"
)

// Normalizer is the normalizer.URL/normalizer.Name pair this package
// resolves keys through (normalizer.IsMeaningfulName is called directly,
// as it needs no caching), so the engine can
// swap in the otter-backed cacheutil.NormalizeCache above a channel-count
// threshold without this package knowing about caching at all.
type Normalizer interface {
	URL(s string) string
	Name(s string) string
}

// pureNormalizer calls the package-level pure functions directly; used
// when no cache has been wired in.
type pureNormalizer struct{}

func (pureNormalizer) URL(s string) string  { return normalizer.URL(s) }
func (pureNormalizer) Name(s string) string { return normalizer.Name(s) }

// Dedup removes duplicate channels under normalized link/name equality,
// preserving the order of survivors. The second return value is the
// number of channels dropped.
func Dedup(channels []types.Channel) ([]types.Channel, int) {
	return DedupWith(channels, pureNormalizer{})
}

// DedupWith runs the same algorithm as Dedup but resolves normalized
// keys through n, so callers can supply a memoizing Normalizer for large
// inputs.
func DedupWith(channels []types.Channel, n Normalizer) ([]types.Channel, int) {
	linkSet := make(map[string]struct{}, len(channels))
	nameSet := make(map[string]struct{}, len(channels))

	survivors := make([]types.Channel, 0, len(channels))
	removed := 0

	for _, ch := range channels {
		link := n.URL(ch.Link)
		name := n.Name(ch.Name)
		meaningful := normalizer.IsMeaningfulName(name)

		if _, dup := linkSet[link]; dup {
			removed++
			continue
		}
		linkSet[link] = struct{}{}

		if meaningful {
			if _, dup := nameSet[name]; dup {
				delete(linkSet, link)
				removed++
				continue
			}
			nameSet[name] = struct{}{}
		}

		survivors = append(survivors, ch)
	}

	for i := range survivors {
		survivors[i].ID = i
	}

	return survivors, removed
}
