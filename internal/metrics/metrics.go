// Package metrics exposes Prometheus gauges mirroring the scheduler's
// progress counters, write-only from the pipeline's perspective — they
// never influence behavior, only observability (spec.md's Non-goals
// exclude persistence/metrics infrastructure as a product feature, not
// ambient instrumentation). Grounded on the teacher's
// work/metrics/metrics.go promauto pattern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChannelsProcessed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "m3uclean_channels_processed",
		Help: "Number of channels probed so far in the current run",
	})

	ChannelsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "m3uclean_channels_total",
		Help: "Total number of channels queued for probing in the current run",
	})

	ChannelsWorking = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "m3uclean_channels_working",
		Help: "Number of channels confirmed alive so far in the current run",
	})

	ChannelsNotWorking = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "m3uclean_channels_not_working",
		Help: "Number of channels confirmed dead so far in the current run",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "m3uclean_runs_completed_total",
		Help: "Total number of pipeline runs that reached a final report",
	})
)

// ObserveProgress mirrors one scheduler progress tick into the gauges
// above. Safe to call at high frequency; gauge Set is lock-free.
func ObserveProgress(processed, total, working, notWorking int) {
	ChannelsProcessed.Set(float64(processed))
	ChannelsTotal.Set(float64(total))
	ChannelsWorking.Set(float64(working))
	ChannelsNotWorking.Set(float64(notWorking))
}
