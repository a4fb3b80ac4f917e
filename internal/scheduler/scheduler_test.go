package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"m3uclean/internal/httpclient"
	"m3uclean/internal/types"
)

func makeChannels(n int) []types.Channel {
	channels := make([]types.Channel, n)
	for i := range channels {
		channels[i] = types.Channel{ID: i, Name: "ch", Link: "http://host.example/" + string(rune('a'+i%26))}
	}
	return channels
}

func TestRunPreservesOrderUnderSkewedLatency(t *testing.T) {
	channels := makeChannels(20)
	probe := func(ctx context.Context, client *httpclient.Client, url string) types.ProbeResult {
		// Links end in 'a'+index, so even-indexed channels answer late.
		if (url[len(url)-1]-'a')%2 == 0 {
			time.Sleep(20 * time.Millisecond)
		}
		return types.ProbeResult{Alive: true}
	}

	survivors := Run(context.Background(), nil, channels, Options{
		MaxConcurrency: 8,
		Probe:          probe,
	})

	if len(survivors) != len(channels) {
		t.Fatalf("expected all %d channels to survive, got %d", len(channels), len(survivors))
	}
	for i, ch := range survivors {
		if ch.Link != channels[i].Link {
			t.Errorf("order mismatch at %d: got %q, want %q", i, ch.Link, channels[i].Link)
		}
	}
}

func TestRunDropsDeadChannels(t *testing.T) {
	channels := makeChannels(10)
	probe := func(ctx context.Context, client *httpclient.Client, url string) types.ProbeResult {
		if url == channels[0].Link {
			return types.ProbeResult{Alive: false}
		}
		return types.ProbeResult{Alive: true}
	}

	survivors := Run(context.Background(), nil, channels, Options{
		MaxConcurrency: 4,
		Probe:          probe,
	})

	if len(survivors) != len(channels)-1 {
		t.Fatalf("expected %d survivors, got %d", len(channels)-1, len(survivors))
	}
	for _, ch := range survivors {
		if ch.Link == channels[0].Link {
			t.Fatal("dead channel should have been dropped")
		}
	}
}

func TestRunHonorsConcurrencyCap(t *testing.T) {
	channels := makeChannels(30)

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	probe := func(ctx context.Context, client *httpclient.Client, url string) types.ProbeResult {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return types.ProbeResult{Alive: true}
	}

	Run(context.Background(), nil, channels, Options{
		MaxConcurrency: 5,
		Probe:          probe,
	})

	if maxInFlight > 5 {
		t.Fatalf("observed %d concurrent probes, want at most 5", maxInFlight)
	}
}

func TestRunReturnsEmptyForNoChannels(t *testing.T) {
	survivors := Run(context.Background(), nil, nil, Options{MaxConcurrency: 5})
	if len(survivors) != 0 {
		t.Fatalf("expected no survivors for empty input, got %d", len(survivors))
	}
}

func TestRunDeliversFinalProgressReportAt100Percent(t *testing.T) {
	channels := makeChannels(5)
	var last types.ProgressReport
	var mu sync.Mutex

	probe := func(ctx context.Context, client *httpclient.Client, url string) types.ProbeResult {
		return types.ProbeResult{Alive: true}
	}

	Run(context.Background(), nil, channels, Options{
		MaxConcurrency: 3,
		Probe:          probe,
		OnProgress: func(p types.ProgressReport) {
			mu.Lock()
			last = p
			mu.Unlock()
		},
	})

	mu.Lock()
	defer mu.Unlock()
	if last.Percent != 100 {
		t.Fatalf("expected final report at 100%%, got %d%%", last.Percent)
	}
}

func TestReportIntervalSchedule(t *testing.T) {
	cases := map[int]int{10: 1, 50: 2, 200: 5, 800: 10, 5000: 50}
	for total, want := range cases {
		if got := reportInterval(total); got != want {
			t.Errorf("reportInterval(%d) = %d, want %d", total, got, want)
		}
	}
}
