// Package engine composes the Parser, Deduplicator, enrichment pass,
// Probe Scheduler and Writer into one pipeline run, producing a
// FinalReport (spec.md §2 flow, §7 error propagation). It owns the
// shared httpclient.Client and the optional normalization cache, the
// same way the teacher proxy's StreamProxy owns one HeaderSettingClient
// shared across parsing and probing.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"m3uclean/internal/cacheutil"
	"m3uclean/internal/config"
	"m3uclean/internal/dedup"
	"m3uclean/internal/enrich"
	"m3uclean/internal/httpclient"
	"m3uclean/internal/logger"
	"m3uclean/internal/metrics"
	"m3uclean/internal/playlist"
	"m3uclean/internal/scheduler"
	"m3uclean/internal/source"
	"m3uclean/internal/types"
)

// Engine runs one cleaning pass per Run call; it is safe to reuse across
// multiple Run calls (the HTTP client is shared, matching the teacher's
// "one client for the process lifetime" convention; the normalization
// cache is built afresh for each run).
type Engine struct {
	cfg    config.Config
	client *httpclient.Client

	// OnProgress, if set, receives every ProgressReport the scheduler
	// emits for the current run (wired to internal/diag by the CLI glue).
	OnProgress func(types.ProgressReport)
}

// New builds an Engine for cfg.
func New(cfg config.Config) *Engine {
	return &Engine{
		cfg:    cfg,
		client: httpclient.New(cfg.Timeout),
	}
}

// Run executes the full pipeline: resolve sources, parse, dedup, enrich,
// probe (unless -skip-validation), and write. It returns the FinalReport
// and the list of output paths actually written (one for Write, several
// for WriteSplit).
func (e *Engine) Run(ctx context.Context) (types.FinalReport, []string, error) {
	channels, originalCount, err := e.loadChannels(ctx)
	if err != nil {
		return types.FinalReport{}, nil, err
	}
	if len(channels) == 0 {
		logger.Warn("parser produced zero channels")
	}

	survivors, doublesRemoved := e.dedupe(channels)
	survivors = enrich.All(survivors)

	if !e.cfg.SkipValidation {
		survivors = scheduler.Run(ctx, e.client, survivors, scheduler.Options{
			MaxConcurrency: e.cfg.MaxConcurrency,
			MaxPerHost:     e.cfg.MaxPerHost,
			RateLimit:      e.cfg.ProbesPerSecond,
			OnProgress:     e.OnProgress,
		})
	}

	outputs, err := e.write(survivors)
	if err != nil {
		return types.FinalReport{}, nil, err
	}

	groups := make(map[string]struct{}, len(survivors))
	for _, ch := range survivors {
		groups[ch.GroupName] = struct{}{}
	}

	report := types.FinalReport{
		WorkingCount:     len(survivors),
		TotalAfterDedupe: len(channels) - doublesRemoved,
		DoublesRemoved:   doublesRemoved,
		OriginalCount:    originalCount,
		GroupCount:       len(groups),
	}
	metrics.RunsCompleted.Inc()
	return report, outputs, nil
}

// loadChannels resolves and parses the configured sources. With -merge it
// concatenates every source into a single working set preserving
// per-source then in-source order; without -merge only the first source
// is resolved and the rest are ignored.
func (e *Engine) loadChannels(ctx context.Context) ([]types.Channel, int, error) {
	if len(e.cfg.Sources) == 0 {
		return nil, 0, types.NewError(types.ErrSourceNotFound, "", nil)
	}

	var all []types.Channel
	for _, src := range e.cfg.Sources {
		text, err := source.Resolve(ctx, e.client, src)
		if err != nil {
			return nil, 0, err
		}

		parsed, err := playlist.ParseString(text)
		if err != nil {
			return nil, 0, err
		}
		all = append(all, parsed...)

		if !e.cfg.Merge {
			break
		}
	}

	for i := range all {
		all[i].ID = i
	}
	return all, len(all), nil
}

// dedupe runs the deduplicator, wiring in the otter-backed normalization
// cache above the configured channel-count threshold (spec.md §4.1's
// optional memoizing layer; results are identical either way).
func (e *Engine) dedupe(channels []types.Channel) ([]types.Channel, int) {
	if !e.cfg.Dedup {
		return channels, 0
	}
	if len(channels) >= e.cfg.NormalizeCacheAt {
		cache := cacheutil.New(len(channels))
		return dedup.DedupWith(channels, cache)
	}
	return dedup.Dedup(channels)
}

// write dispatches to Write or WriteSplit depending on -split, returning
// the list of paths actually written.
func (e *Engine) write(channels []types.Channel) ([]string, error) {
	if e.cfg.Split {
		written, err := playlist.WriteSplit(e.cfg.Dest, channels)
		if err != nil {
			return nil, err
		}
		paths := make([]string, 0, len(written))
		for _, p := range written {
			paths = append(paths, p)
		}
		return paths, nil
	}

	dest := e.cfg.Dest
	if dest == "" {
		dest = defaultDest(e.cfg.Sources)
	}
	if err := playlist.Write(dest, channels); err != nil {
		return nil, err
	}
	return []string{dest}, nil
}

func defaultDest(sources []string) string {
	base := "playlist"
	if len(sources) > 0 {
		base = source.SanitizeOrigin(filepath.Base(sources[0]))
	}
	if idx := strings.LastIndex(base, "."); idx != -1 {
		base = base[:idx]
	}
	return filepath.Join(os.TempDir(), base+"-Cleaned.m3u")
}
