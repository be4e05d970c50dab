// Package scan extracts structure-symbol names from XML definition files.
// Files are first sniffed by scanning a fixed-size prefix for structural
// marker tokens; candidates are then streamed with encoding/xml, falling
// back to a raw substring scan when the document is malformed. Both the
// candidacy decision and the extracted names are cached per file path.
package scan

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jward/symdex/internal/perf"
	"github.com/jward/symdex/internal/priority"
	"github.com/jward/symdex/internal/registry"
)

// fileCacheSize bounds the per-file caches. Eviction only costs a re-read.
const fileCacheSize = 4096

// Config fixes the extraction grammar: which open-tags mark a candidate
// file and which element names carry symbol values.
type Config struct {
	// MarkerTokens are structural open-tags identifying known
	// structure-definition kinds. A file is a candidate iff any token
	// appears within its first SniffBytes.
	MarkerTokens []string `yaml:"marker_tokens"`

	// NameTags are element local names whose text content is a symbol name.
	// Matched case-insensitively.
	NameTags []string `yaml:"name_tags"`

	// SniffBytes is the prefix size read during candidacy sniffing.
	SniffBytes int `yaml:"sniff_bytes"`
}

// DefaultConfig returns the built-in extraction grammar.
func DefaultConfig() Config {
	return Config{
		MarkerTokens: []string{"<StructureLayoutDef", "<SettlementLayoutDef", "<SymbolDef"},
		NameTags:     []string{"defName", "symbol", "symbolDef"},
		SniffBytes:   8 * 1024,
	}
}

// Scanner mines symbol names out of a definition-file tree.
type Scanner struct {
	cfg      Config
	log      *slog.Logger
	perf     perf.Collector
	analyzer *priority.Analyzer

	candidates *lru.Cache[string, bool]
	extracted  *lru.Cache[string, []string]

	reads atomic.Int64
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the log sink. Defaults to a discarding logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// WithCollector sets the timing/counter sink. Defaults to a no-op sink.
func WithCollector(c perf.Collector) Option {
	return func(s *Scanner) { s.perf = c }
}

// New creates a Scanner. The analyzer is used by ExtractFromDirectory to
// filter discovered names by priority.
func New(cfg Config, analyzer *priority.Analyzer, opts ...Option) *Scanner {
	// Sizes are positive constants; lru.New cannot fail.
	candidates, _ := lru.New[string, bool](fileCacheSize)
	extracted, _ := lru.New[string, []string](fileCacheSize)
	s := &Scanner{
		cfg:        cfg,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		perf:       perf.NoopCollector{},
		analyzer:   analyzer,
		candidates: candidates,
		extracted:  extracted,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileReads returns the number of file read attempts made so far. Cached
// calls do not touch the filesystem and do not advance this counter.
func (s *Scanner) FileReads() int64 {
	return s.reads.Load()
}

// ContainsCandidateMarkers reports whether the file's prefix carries any
// structural marker token. The decision is cached per path; unreadable
// files are cached as non-candidates and never retried.
func (s *Scanner) ContainsCandidateMarkers(path string) bool {
	if cached, ok := s.candidates.Get(path); ok {
		return cached
	}

	s.reads.Add(1)
	f, err := os.Open(path)
	if err != nil {
		s.log.Debug("candidate sniff failed", "path", path, "error", err)
		s.candidates.Add(path, false)
		return false
	}
	defer f.Close()

	buf := make([]byte, s.cfg.SniffBytes)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		s.log.Debug("candidate sniff failed", "path", path, "error", err)
		s.candidates.Add(path, false)
		return false
	}

	prefix := string(buf[:n])
	result := false
	for _, marker := range s.cfg.MarkerTokens {
		if strings.Contains(prefix, marker) {
			result = true
			break
		}
	}
	s.candidates.Add(path, result)
	return result
}

// ExtractNames returns the symbol names carried by the file's name-bearing
// elements, in document order. Results are cached per path; callers always
// receive a defensive copy. Non-candidate files yield an empty result. On a
// parse failure the raw substring fallback keeps whatever symbols remain
// extractable instead of losing the whole file.
func (s *Scanner) ExtractNames(path string) []string {
	if cached, ok := s.extracted.Get(path); ok {
		s.perf.Hit("scan.extract")
		return append([]string(nil), cached...)
	}
	s.perf.Miss("scan.extract")

	if !s.ContainsCandidateMarkers(path) {
		s.extracted.Add(path, nil)
		return nil
	}

	s.reads.Add(1)
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("cannot read candidate file", "path", path, "error", err)
		s.extracted.Add(path, nil)
		return nil
	}

	names, err := s.extractStream(data)
	if err != nil {
		s.log.Debug("stream parse failed, using substring fallback", "path", path, "error", err)
		names = s.extractFallback(data)
	}

	s.extracted.Add(path, names)
	return append([]string(nil), names...)
}

// extractStream walks the document with a streaming decoder, visiting each
// element start. The decoder is namespace-agnostic (local-name matching)
// and never materializes a tree; comments, processing instructions, and
// whitespace-only text fall out of the token walk untouched. DTD directives
// are not resolved.
func (s *Scanner) extractStream(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var names []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !s.isNameTag(start.Name.Local) {
			continue
		}
		var value string
		if err := dec.DecodeElement(&value, &start); err != nil {
			return nil, err
		}
		if value = strings.TrimSpace(value); value != "" {
			names = append(names, value)
		}
	}
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

// extractFallback is the byte-for-byte substring scan used when structural
// parsing fails: locate matching open/close pairs for each name tag and
// pull the inner text, with the same trimming and empty filtering as the
// streaming path. Fragments without a bounding close tag yield nothing.
// The tag search folds case on ASCII only; offsets into lower line up with
// text byte for byte.
func (s *Scanner) extractFallback(data []byte) []string {
	text := string(data)
	lower := lowerASCII(text)
	var names []string
	for _, tag := range s.cfg.NameTags {
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
			if value := strings.TrimSpace(text[start : start+end]); value != "" {
				names = append(names, value)
			}
			pos = start + end + len(closeTag)
		}
	}
	return names
}

func (s *Scanner) isNameTag(local string) bool {
	for _, tag := range s.cfg.NameTags {
		if strings.EqualFold(local, tag) {
			return true
		}
	}
	return false
}

// ExtractFromDirectory extracts from every candidate *.xml file under root,
// deduplicates case-insensitively (first spelling wins), and filters the
// union through the priority analyzer at maxPriority.
func (s *Scanner) ExtractFromDirectory(root string, recursive bool, maxPriority registry.PriorityClass) []string {
	defer s.perf.Span("scan.directory")()

	var union []string
	seen := make(map[string]bool)
	for _, path := range s.ListFiles(root, recursive) {
		if !s.ContainsCandidateMarkers(path) {
			continue
		}
		for _, name := range s.ExtractNames(path) {
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, name)
		}
	}
	return s.analyzer.FilterByPriority(union, maxPriority)
}

// ListFiles enumerates *.xml files under root. Enumeration errors are
// logged and yield whatever was found so far.
func (s *Scanner) ListFiles(root string, recursive bool) []string {
	var paths []string
	if recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".xml") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			s.log.Warn("directory walk failed", "root", root, "error", err)
		}
		return paths
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		s.log.Warn("directory listing failed", "root", root, "error", err)
		return nil
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			paths = append(paths, filepath.Join(root, e.Name()))
		}
	}
	return paths
}

// ClearCaches drops the candidacy and extraction caches. Registry and
// analyzer state is unaffected.
func (s *Scanner) ClearCaches() {
	s.candidates.Purge()
	s.extracted.Purge()
}

// Stats reports scanner cache sizes and read activity.
type Stats struct {
	CachedCandidacies int
	CachedExtractions int
	FileReads         int64
}

func (s *Scanner) Stats() Stats {
	return Stats{
		CachedCandidacies: s.candidates.Len(),
		CachedExtractions: s.extracted.Len(),
		FileReads:         s.reads.Load(),
	}
}
