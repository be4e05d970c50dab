// Package priority classifies symbol names into importance tiers. A one-shot
// corpus pass counts reference-style tags in settlement/faction/map-gen
// definition files; names the corpus never mentions fall back to naming
// heuristics. Thresholds and token lists live in Config, not code.
package priority

import (
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jward/symdex/internal/registry"
)

// priorityCacheSize bounds the memoized classifications. Classification is
// cheap to recompute, so eviction only costs a rescan of one name.
const priorityCacheSize = 8192

// Analyzer computes and caches priority classifications.
type Analyzer struct {
	cfg Config
	log *slog.Logger

	// refCounts grows only during Initialize and is read-only afterward.
	refCounts map[string]int

	cache *lru.Cache[string, registry.PriorityClass]

	// Temporary state, reclaimable via CleanupTemporaryCaches.
	corpusFiles []string
	analyzed    map[string]bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the log sink. Defaults to a discarding logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

// New creates an Analyzer with the given heuristics.
func New(cfg Config, opts ...Option) *Analyzer {
	// Size is a positive constant; lru.New cannot fail.
	cache, _ := lru.New[string, registry.PriorityClass](priorityCacheSize)
	a := &Analyzer{
		cfg:       cfg,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		refCounts: make(map[string]int),
		cache:     cache,
		analyzed:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Initialize clears all analyzer caches and rebuilds the reference-frequency
// table from the secondary corpus: for each definitions root, the
// conventional subfolders are walked and every file's raw text is scanned
// for the configured reference tags. Unreadable files are skipped.
func (a *Analyzer) Initialize(defsRoots []string) {
	a.refCounts = make(map[string]int)
	a.cache.Purge()
	a.corpusFiles = nil
	a.analyzed = make(map[string]bool)

	for _, root := range defsRoots {
		for _, folder := range a.cfg.CorpusFolders {
			dir := filepath.Join(root, folder)
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
			filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return nil
				}
				if !strings.EqualFold(filepath.Ext(path), ".xml") {
					return nil
				}
				a.corpusFiles = append(a.corpusFiles, path)
				return nil
			})
		}
	}

	for _, path := range a.corpusFiles {
		if a.analyzed[path] {
			continue
		}
		a.analyzed[path] = true
		data, err := os.ReadFile(path)
		if err != nil {
			a.log.Debug("skipping unreadable corpus file", "path", path, "error", err)
			continue
		}
		a.countReferences(string(data))
	}

	a.log.Info("reference analysis complete",
		"files", len(a.corpusFiles), "distinct_symbols", len(a.refCounts))
}

// lowerASCII folds ASCII letters to lower case without touching other
// bytes. Unlike strings.ToLower it preserves byte length, so indices found
// in the result are valid in the original text.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// countReferences scans raw document text for each configured reference tag
// and tallies every non-empty inner text between matched open/close pairs.
// The tag search folds case on ASCII only, keeping offsets into lower valid
// in text.
func (a *Analyzer) countReferences(text string) {
	lower := lowerASCII(text)
	for _, tag := range a.cfg.ReferenceTags {
		openTag := "<" + strings.ToLower(tag) + ">"
		closeTag := "</" + strings.ToLower(tag) + ">"
		pos := 0
		for {
			start := strings.Index(lower[pos:], openTag)
			if start < 0 {
				break
			}
			start += pos + len(openTag)
			end := strings.Index(lower[start:], closeTag)
			if end < 0 {
				break
			}
			value := strings.TrimSpace(text[start : start+end])
			if value != "" {
				a.refCounts[value]++
			}
			pos = start + end + len(closeTag)
		}
	}
}

// CleanupTemporaryCaches releases the corpus file list and per-file state
// while keeping the reference counts and classification cache.
func (a *Analyzer) CleanupTemporaryCaches() {
	a.corpusFiles = nil
	a.analyzed = nil
}

// GetPriority returns the memoized classification for name.
func (a *Analyzer) GetPriority(name string) registry.PriorityClass {
	if p, ok := a.cache.Get(name); ok {
		return p
	}
	p := a.ClassifyName(name)
	a.cache.Add(name, p)
	return p
}

// ClassifyName computes a tier from reference counts first, then naming
// heuristics. Reference data always wins over heuristics.
func (a *Analyzer) ClassifyName(name string) registry.PriorityClass {
	if c := a.refCounts[name]; c > 0 {
		switch {
		case c >= a.cfg.EssentialRefs:
			return registry.Essential
		case c >= a.cfg.HighRefs:
			return registry.High
		case c >= a.cfg.MediumRefs:
			return registry.Medium
		}
	}

	lower := strings.ToLower(name)
	for _, tok := range a.cfg.PrimaryTokens {
		if strings.Contains(lower, tok) {
			return registry.Essential
		}
	}
	// A first-variant suffix only counts after a non-digit stem:
	// "Layout1" is the family's canonical member, "Layout11" is not.
	for _, suffix := range a.cfg.FirstVariantSuffixes {
		if !strings.HasSuffix(lower, suffix) || len(lower) == len(suffix) {
			continue
		}
		if prev := lower[len(lower)-len(suffix)-1]; prev < '0' || prev > '9' {
			return registry.Essential
		}
	}
	for _, tok := range a.cfg.HighTokens {
		if strings.Contains(lower, tok) {
			return registry.High
		}
	}
	for _, tok := range a.cfg.MediumTokens {
		if strings.Contains(lower, tok) {
			return registry.Medium
		}
	}
	for _, tok := range a.cfg.VariantTokens {
		if strings.Contains(lower, tok) {
			return registry.Low
		}
	}
	if len(lower) > 0 {
		if last := lower[len(lower)-1]; last >= '0' && last <= '9' {
			return registry.Low
		}
	}
	return registry.Low
}

// FilterByPriority keeps names classified at or above maxPriority,
// preserving input order.
func (a *Analyzer) FilterByPriority(names []string, maxPriority registry.PriorityClass) []string {
	var kept []string
	for _, name := range names {
		if a.GetPriority(name).AtLeast(maxPriority) {
			kept = append(kept, name)
		}
	}
	return kept
}

// PrioritizeOrder orders names most-important-first: grouped by tier from
// Essential through VeryLow, insertion order within a group.
func (a *Analyzer) PrioritizeOrder(names []string) []string {
	var groups [int(registry.VeryLow) + 1][]string
	for _, name := range names {
		p := a.GetPriority(name)
		groups[p] = append(groups[p], name)
	}
	ordered := make([]string, 0, len(names))
	for _, group := range groups {
		ordered = append(ordered, group...)
	}
	return ordered
}

// ReferenceCount returns the observed corpus tally for name.
func (a *Analyzer) ReferenceCount(name string) int {
	return a.refCounts[name]
}

// Stats reports analyzer cache sizes.
type Stats struct {
	ReferenceCounts   int
	CachedPriorities  int
	PendingCorpusSize int
}

func (a *Analyzer) Stats() Stats {
	return Stats{
		ReferenceCounts:   len(a.refCounts),
		CachedPriorities:  a.cache.Len(),
		PendingCorpusSize: len(a.corpusFiles),
	}
}
