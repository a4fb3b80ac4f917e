package dedup

import (
	"testing"

	"m3uclean/internal/types"
)

func TestDedupByNormalizedURL(t *testing.T) {
	channels := []types.Channel{
		{Name: "Channel A", Link: "http://h/ch?utm_source=x&a=1"},
		{Name: "Channel A Mirror", Link: "http://h/ch/?a=1"},
	}
	survivors, removed := Dedup(channels)
	if len(survivors) != 1 || removed != 1 {
		t.Fatalf("expected 1 survivor / 1 removed, got %d / %d", len(survivors), removed)
	}
}

func TestDedupByMeaningfulNameCollision(t *testing.T) {
	channels := []types.Channel{
		{Name: "BBC One HD", Link: "http://h/one"},
		{Name: "bbc one", Link: "http://h/two"},
	}
	survivors, removed := Dedup(channels)
	if len(survivors) != 1 || removed != 1 {
		t.Fatalf("expected 1 survivor / 1 removed, got %d / %d", len(survivors), removed)
	}
}

func TestDedupPreservesOrder(t *testing.T) {
	channels := []types.Channel{
		{Name: "Alpha", Link: "http://h/a"},
		{Name: "Beta", Link: "http://h/b"},
		{Name: "Gamma", Link: "http://h/c"},
	}
	survivors, removed := Dedup(channels)
	if removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
	names := []string{"Alpha", "Beta", "Gamma"}
	for i, ch := range survivors {
		if ch.Name != names[i] {
			t.Errorf("survivor[%d] = %q, want %q", i, ch.Name, names[i])
		}
	}
}

func TestDedupIdempotent(t *testing.T) {
	channels := []types.Channel{
		{Name: "Alpha", Link: "http://h/a?utm_source=1"},
		{Name: "Alpha", Link: "http://h/a"},
		{Name: "Beta", Link: "http://h/b"},
	}
	once, _ := Dedup(channels)
	twice, _ := Dedup(once)
	if len(once) != len(twice) {
		t.Fatalf("dedup not idempotent: %d vs %d channels", len(once), len(twice))
	}
	for i := range once {
		if once[i].Link != twice[i].Link || once[i].Name != twice[i].Name {
			t.Errorf("dedup not idempotent at %d: %+v vs %+v", i, once[i], twice[i])
		}
	}
}

// TestDedupNameCollisionFreesItsOwnLinkForLaterReuse exercises spec.md
// §4.3 step 4: when a channel is dropped for a name collision, its own
// (just-added) normalized link is also removed from the link-set, so a
// later, legitimately distinct channel that happens to reuse that exact
// link text is not masked by it.
func TestDedupNameCollisionFreesItsOwnLinkForLaterReuse(t *testing.T) {
	channels := []types.Channel{
		{Name: "BBC One HD", Link: "http://h/first"},
		{Name: "bbc one", Link: "http://h/reused"}, // name collision -> dropped, "reused" freed up
		{Name: "Completely Different Show", Link: "http://h/reused"},
	}
	survivors, removed := Dedup(channels)
	if removed != 1 {
		t.Fatalf("expected exactly 1 removal (the name collision), got %d", removed)
	}

	foundReused := false
	for _, ch := range survivors {
		if ch.Link == "http://h/reused" && ch.Name == "Completely Different Show" {
			foundReused = true
		}
	}
	if !foundReused {
		t.Fatalf("expected the third channel to reclaim the freed link, got %+v", survivors)
	}
}

func TestDedupKeepsGenericNamesSeparate(t *testing.T) {
	channels := []types.Channel{
		{Name: "TV", Link: "http://h/a"},
		{Name: "tv", Link: "http://h/b"},
	}
	survivors, removed := Dedup(channels)
	if removed != 0 || len(survivors) != 2 {
		t.Fatalf("generic short names should not collide, got %d survivors / %d removed", len(survivors), removed)
	}
}
