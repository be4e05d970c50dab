package symdex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/symdex/internal/priority"
	"github.com/jward/symdex/internal/registry"
	"github.com/jward/symdex/internal/scan"
	"github.com/jward/symdex/internal/store"
)

// defaultBatchSize bounds the working set accumulated between registry
// flushes during the one-shot pipeline run.
const defaultBatchSize = 50

// Source is one content source (e.g. a mod package) contributing definition
// files. Its identifier becomes the provenance attributed to symbols
// discovered under it.
type Source struct {
	ID   string // provenance identifier
	Name string // display name, optional
	Root string // content root; definitions live under Root/Defs
}

// DefsDir returns the source's definitions directory: Root/Defs when it
// exists, otherwise Root itself.
func (s Source) DefsDir() string {
	defs := filepath.Join(s.Root, "Defs")
	if info, err := os.Stat(defs); err == nil && info.IsDir() {
		return defs
	}
	return s.Root
}

// Engine orchestrates the symdex pipeline: reference analysis, candidate
// extraction, priority filtering/ordering, batch registration, and the
// optional resolver sync and snapshot write. The pipeline is single-threaded
// and runs once; afterwards the registry serves reads.
type Engine struct {
	registry *registry.Registry
	analyzer *priority.Analyzer
	scanner  *scan.Scanner

	log  *Logger
	perf Collector

	resolver     Resolver
	snapshotPath string
	sources      []Source
	batchSize    int
	maxPriority  PriorityClass
	heuristics   HeuristicsConfig
	scanCfg      ScanConfig
}

// New creates an Engine. Options are applied before the registry, analyzer,
// and scanner are constructed so they share the configured sinks.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:         NoopLogger(),
		perf:        NoopCollector{},
		batchSize:   defaultBatchSize,
		maxPriority: VeryLow,
		heuristics:  priority.DefaultConfig(),
		scanCfg:     scan.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.registry = registry.New(
		registry.WithLogger(e.log.Logger),
		registry.WithCollector(e.perf),
	)
	e.analyzer = priority.New(e.heuristics, priority.WithLogger(e.log.Logger))
	e.scanner = scan.New(e.scanCfg, e.analyzer,
		scan.WithLogger(e.log.Logger),
		scan.WithCollector(e.perf),
	)
	return e
}

// Registry returns the underlying symbol registry for direct queries.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Scanner returns the underlying extraction scanner.
func (e *Engine) Scanner() *scan.Scanner {
	return e.scanner
}

// Analyzer returns the underlying priority analyzer.
func (e *Engine) Analyzer() *priority.Analyzer {
	return e.analyzer
}

// Run executes the one-shot pipeline over root: initialize the analyzer
// from the secondary corpus, extract and register symbols per source, sync
// the external resolver best-effort, reclaim temporary caches, and write
// the snapshot if configured. Returns the number of newly registered
// symbols. Individual file failures are skipped; only snapshot persistence
// can fail the run.
func (e *Engine) Run(root string) (int, error) {
	defer e.perf.Span("pipeline.run")()

	sources := e.sources
	if len(sources) == 0 {
		sources = []Source{{ID: "local", Root: root}}
	}

	defsRoots := make([]string, 0, len(sources))
	for _, src := range sources {
		defsRoots = append(defsRoots, src.DefsDir())
	}
	e.analyzer.Initialize(defsRoots)

	registered := 0
	for _, src := range sources {
		files := e.scanner.ListFiles(src.DefsDir(), true)
		registered += e.registerFromFiles(files, e.batchSize, e.maxPriority, src.ID)
	}

	synced, err := e.SyncResolver()
	e.log.LogResolverSync(synced, err)
	registered += synced

	e.analyzer.CleanupTemporaryCaches()

	if e.snapshotPath != "" {
		if err := e.WriteSnapshot(e.snapshotPath); err != nil {
			e.log.LogRun(root, registered, err)
			return registered, err
		}
	}

	e.log.LogRun(root, registered, nil)
	return registered, nil
}

// RegisterFromFiles extracts symbols from the given files, deduplicates
// case-insensitively, filters by maxPriority, orders most-important-first,
// and registers the survivors in fixed-size batches, skipping names already
// present. Returns the count of newly registered symbols. Per-file errors
// are skipped inside the scanner; no error escapes.
func (e *Engine) RegisterFromFiles(files []string, batchSize int, maxPriority PriorityClass) int {
	return e.registerFromFiles(files, batchSize, maxPriority, "")
}

// IndexDirectory registers every symbol discoverable under root using the
// engine's configured batch size and threshold. Unlike Run it performs no
// reference analysis, resolver sync, or snapshot write; classification
// relies on naming heuristics and any earlier analysis pass.
func (e *Engine) IndexDirectory(root string, recursive bool) int {
	return e.registerFromFiles(e.scanner.ListFiles(root, recursive), e.batchSize, e.maxPriority, "")
}

func (e *Engine) registerFromFiles(files []string, batchSize int, maxPriority PriorityClass, sourceID string) int {
	defer e.perf.Span("pipeline.register")()
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	// Union of all extracted names, deduplicated case-insensitively with
	// the first spelling kept.
	seen := make(map[string]bool)
	var union []string
	for _, path := range files {
		for _, name := range e.scanner.ExtractNames(path) {
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, name)
		}
	}

	ordered := e.analyzer.PrioritizeOrder(e.analyzer.FilterByPriority(union, maxPriority))

	registered := 0
	batch := make([]string, 0, batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		e.perf.Add("pipeline.flush", 1)
		for _, name := range batch {
			// Re-check: the name may have registered since accumulation.
			if e.registry.IsRegistered(name) {
				continue
			}
			e.registry.RegisterFrom(name, sourceID, e.analyzer.GetPriority(name))
			registered++
		}
		batch = batch[:0]
	}

	for _, name := range ordered {
		if e.registry.IsRegistered(name) {
			continue
		}
		batch = append(batch, name)
		if len(batch) >= batchSize {
			flush()
		}
	}
	flush()

	e.log.Debug("batch registration complete",
		"files", len(files), "discovered", len(union), "registered", registered)
	return registered
}

// SyncResolver enumerates the external authoritative resolver, if any, and
// registers each known symbol with its origin. Returns how many enumerated
// symbols were new to the registry. Run performs this sync itself; call it
// directly only when driving the pipeline stages by hand.
func (e *Engine) SyncResolver() (int, error) {
	if e.resolver == nil {
		return 0, nil
	}
	defer e.perf.Span("pipeline.resolver_sync")()

	pairs, err := e.resolver.Enumerate()
	if err != nil {
		return 0, fmt.Errorf("enumerate resolver: %w", err)
	}
	synced := 0
	for _, p := range pairs {
		if p.Name == "" {
			continue
		}
		if !e.registry.IsRegistered(p.Name) {
			synced++
		}
		e.registry.RegisterFrom(p.Name, p.Origin, e.analyzer.GetPriority(p.Name))
	}
	return synced, nil
}

// WriteSnapshot persists the registry to a SQLite snapshot at path.
func (e *Engine) WriteSnapshot(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	s, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return err
	}

	records := e.registry.Export()
	if err := s.SaveSnapshot(records, e.registry.Sources()); err != nil {
		e.log.LogSnapshot(path, len(records), err)
		return err
	}
	if err := s.SetMetadata("indexed_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	e.log.LogSnapshot(path, len(records), nil)
	return nil
}

// Stats reports registry, scanner, and analyzer statistics plus the
// registry's estimated retained memory.
type Stats struct {
	Registry        RegistryStats
	Scanner         ScannerStats
	Analyzer        AnalyzerStats
	EstimatedMemory int64
}

// Stats returns current engine statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		Registry:        e.registry.Stats(),
		Scanner:         e.scanner.Stats(),
		Analyzer:        e.analyzer.Stats(),
		EstimatedMemory: e.registry.EstimatedMemoryUsage(),
	}
}
