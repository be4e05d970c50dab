package symdex

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the log sink. Defaults to a noop logger.
func WithLogger(log *Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithCollector sets the timing/counter sink. Defaults to a no-op sink.
func WithCollector(c Collector) Option {
	return func(e *Engine) {
		if c != nil {
			e.perf = c
		}
	}
}

// WithResolver attaches an external authoritative resolver. The pipeline
// syncs from it best-effort after local registration.
func WithResolver(r Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithSnapshot makes Run persist the registry to a SQLite snapshot at path
// after a successful pipeline run.
func WithSnapshot(path string) Option {
	return func(e *Engine) { e.snapshotPath = path }
}

// WithSources declares the content sources being indexed. Sources drive
// provenance attribution and the analyzer's secondary corpus. Without this
// option, Run treats its root argument as one anonymous source.
func WithSources(sources []Source) Option {
	return func(e *Engine) { e.sources = sources }
}

// WithBatchSize overrides the registration batch size (default 50).
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithMaxPriority sets the registration threshold: only symbols classified
// at or above this tier register. Defaults to VeryLow (register everything).
func WithMaxPriority(p PriorityClass) Option {
	return func(e *Engine) { e.maxPriority = p }
}

// WithHeuristics overrides the priority analyzer's heuristics.
func WithHeuristics(cfg HeuristicsConfig) Option {
	return func(e *Engine) { e.heuristics = cfg }
}

// WithScanConfig overrides the extraction grammar.
func WithScanConfig(cfg ScanConfig) Option {
	return func(e *Engine) { e.scanCfg = cfg }
}
