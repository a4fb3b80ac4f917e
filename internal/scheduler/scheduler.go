// Package scheduler fans probes out across a bounded worker pool and
// collects survivors back into source order, per spec.md §4.5. Grounded
// on the teacher proxy's ants.Pool + sync.WaitGroup shape in
// work/proxy/stream.go's ImportStreams, generalized from "one goroutine
// per source" to "one pool task per channel" and from a fixed 2-minute
// timeout to caller-supplied context cancellation.
package scheduler

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"m3uclean/internal/httpclient"
	"m3uclean/internal/metrics"
	"m3uclean/internal/prober"
	"m3uclean/internal/ratelimit"
	"m3uclean/internal/types"
)

// Prober is the probe function the scheduler fans out, matching
// prober.Probe's signature so tests can substitute a fake.
type Prober func(ctx context.Context, client *httpclient.Client, url string) types.ProbeResult

// Options configures one Run call.
type Options struct {
	MaxConcurrency int
	MaxPerHost     int                 // 0 disables the per-host soft limit
	RateLimit      int                 // requests/sec per host; 0 disables throttling
	OnProgress     func(types.ProgressReport)
	Probe          Prober // defaults to prober.Probe if nil
}

type result struct {
	index   int
	channel types.Channel
}

// Run probes every channel's Link, honoring Options.MaxConcurrency as a
// hard global cap and Options.MaxPerHost as an optional soft per-host
// cap, and returns the surviving channels in input order. It never
// returns an error: on cancellation it returns whatever survivors have
// completed so far, per spec.md §4.5's graceful-best-effort invariant.
func Run(ctx context.Context, client *httpclient.Client, channels []types.Channel, opts Options) []types.Channel {
	total := len(channels)
	if total == 0 {
		return nil
	}

	probeFn := opts.Probe
	if probeFn == nil {
		probeFn = prober.Probe
	}
	limiters := ratelimit.NewRegistry(opts.RateLimit)

	pool, err := ants.NewPool(clamp(opts.MaxConcurrency), ants.WithPreAlloc(true))
	if err != nil {
		// A pool that fails to construct degrades to sequential probing
		// rather than dropping the whole run.
		return runSequential(ctx, client, channels, probeFn, opts.OnProgress)
	}
	defer pool.Release()

	perHost := xsync.NewMapOf[string, *int32]()

	var processed, working, notWorking int32
	// progressMu keeps counter updates and their progress report in one
	// step, so successive reports never go backwards.
	var progressMu sync.Mutex
	results := make(chan result, total)
	var wg sync.WaitGroup

	for i, ch := range channels {
		wg.Add(1)
		i, ch := i, ch
		submitErr := pool.Submit(func() {
			defer wg.Done()

			if opts.MaxPerHost > 0 {
				acquireHostSlot(perHost, ch.Link, opts.MaxPerHost, ctx)
				defer releaseHostSlot(perHost, ch.Link)
			}

			limiters.ForURL(ch.Link).Take()

			res := probeFn(ctx, client, ch.Link)

			progressMu.Lock()
			defer progressMu.Unlock()
			newProcessed := atomic.AddInt32(&processed, 1)
			if res.Alive {
				atomic.AddInt32(&working, 1)
				merged := ch
				merged.StreamInfo = res.StreamInfo
				results <- result{index: i, channel: merged}
			} else {
				atomic.AddInt32(&notWorking, 1)
			}

			reportProgress(opts.OnProgress, int(newProcessed), total, int(atomic.LoadInt32(&working)), int(atomic.LoadInt32(&notWorking)))
			metrics.ObserveProgress(int(newProcessed), total, int(atomic.LoadInt32(&working)), int(atomic.LoadInt32(&notWorking)))
		})
		if submitErr != nil {
			wg.Done()
			atomic.AddInt32(&processed, 1)
			atomic.AddInt32(&notWorking, 1)
		}
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	survivors := collectSurvivors(results, total)

	if opts.OnProgress != nil {
		opts.OnProgress(types.ProgressReport{
			Total:      total,
			Working:    int(atomic.LoadInt32(&working)),
			NotWorking: int(atomic.LoadInt32(&notWorking)),
			Percent:    100,
		})
	}

	return survivors
}

// collectSurvivors is the single owner of the results channel: it
// receives every (index, channel) pair, appends to a private slice, and
// performs the final sort once the channel closes — spec.md §9's
// "per-task send into an unordered result channel, single-owner sort at
// the end" rather than a shared mutex-guarded bag.
func collectSurvivors(results <-chan result, total int) []types.Channel {
	collected := make([]result, 0, total)
	for r := range results {
		collected = append(collected, r)
	}
	sort.Slice(collected, func(a, b int) bool { return collected[a].index < collected[b].index })

	survivors := make([]types.Channel, len(collected))
	for i, r := range collected {
		r.channel.ID = i
		survivors[i] = r.channel
	}
	return survivors
}

func runSequential(ctx context.Context, client *httpclient.Client, channels []types.Channel, probeFn Prober, onProgress func(types.ProgressReport)) []types.Channel {
	total := len(channels)
	survivors := make([]types.Channel, 0, total)
	working, notWorking := 0, 0

	for i, ch := range channels {
		if ctx.Err() != nil {
			break
		}
		res := probeFn(ctx, client, ch.Link)
		if res.Alive {
			working++
			merged := ch
			merged.StreamInfo = res.StreamInfo
			survivors = append(survivors, merged)
		} else {
			notWorking++
		}
		reportProgress(onProgress, i+1, total, working, notWorking)
	}

	for i := range survivors {
		survivors[i].ID = i
	}
	return survivors
}

// reportInterval implements spec.md §4.5 step 3's size-dependent
// emission schedule.
func reportInterval(total int) int {
	switch {
	case total < 20:
		return 1
	case total < 100:
		return 2
	case total < 500:
		return 5
	case total < 1000:
		return 10
	default:
		if v := total / 100; v > 1 {
			return v
		}
		return 1
	}
}

func reportProgress(onProgress func(types.ProgressReport), processed, total, working, notWorking int) {
	if onProgress == nil {
		return
	}
	interval := reportInterval(total)
	if processed%interval != 0 && processed != total {
		return
	}
	onProgress(types.ProgressReport{
		Total:      total,
		Working:    working,
		NotWorking: notWorking,
		Percent:    (100 * processed) / total,
	})
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	if n > 50 {
		return 50
	}
	return n
}
