// Package perf defines the timing/counter sink consumed by the registry and
// the registration pipeline. Implementations may forward to a monitoring
// system; the pipeline behaves identically under NoopCollector.
package perf

import (
	"sync"
	"time"
)

// Collector receives named timing spans and counter events.
//
// Span returns a stop function; callers defer it around the timed section:
//
//	defer c.Span("registry.resize")()
type Collector interface {
	// Span starts a named timing span and returns its stop function.
	Span(name string) func()

	// Add increments a named counter by delta.
	Add(name string, delta int64)

	// Hit records a cache/lookup hit for the named counter pair.
	Hit(name string)

	// Miss records a cache/lookup miss for the named counter pair.
	Miss(name string)
}

// NoopCollector discards all events. It is the default sink.
type NoopCollector struct{}

func (NoopCollector) Span(string) func() { return func() {} }

func (NoopCollector) Add(string, int64) {}

func (NoopCollector) Hit(string) {}

func (NoopCollector) Miss(string) {}

// BasicCollector accumulates counters and span totals in memory. Useful for
// tests and for the CLI's timing summary.
type BasicCollector struct {
	mu       sync.Mutex
	counters map[string]int64
	spans    map[string]time.Duration
}

// NewBasicCollector returns an empty in-memory collector.
func NewBasicCollector() *BasicCollector {
	return &BasicCollector{
		counters: make(map[string]int64),
		spans:    make(map[string]time.Duration),
	}
}

func (b *BasicCollector) Span(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		b.mu.Lock()
		b.spans[name] += d
		b.mu.Unlock()
	}
}

func (b *BasicCollector) Add(name string, delta int64) {
	b.mu.Lock()
	b.counters[name] += delta
	b.mu.Unlock()
}

func (b *BasicCollector) Hit(name string)  { b.Add(name+".hits", 1) }
func (b *BasicCollector) Miss(name string) { b.Add(name+".misses", 1) }

// Counter returns the current value of a named counter.
func (b *BasicCollector) Counter(name string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters[name]
}

// SpanTotal returns the accumulated duration of a named span.
func (b *BasicCollector) SpanTotal(name string) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spans[name]
}
