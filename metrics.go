package symdex

import "github.com/jward/symdex/internal/perf"

// Collector is the timing/counter sink consumed by the registry and the
// pipeline. Implement it to integrate with a monitoring system; the default
// is [NoopCollector] and all behavior is identical without a sink.
type Collector = perf.Collector

// NoopCollector discards all events.
type NoopCollector = perf.NoopCollector

// BasicCollector accumulates counters and span totals in memory.
type BasicCollector = perf.BasicCollector

// NewBasicCollector returns an empty in-memory collector.
func NewBasicCollector() *BasicCollector {
	return perf.NewBasicCollector()
}
