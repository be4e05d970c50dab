package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/symdex"
	"github.com/jward/symdex/internal/store"
)

var (
	flagDB     string
	flagFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "symdex",
	Short:         "Structure-symbol indexing for XML definition corpora",
	Long:          "Symdex scans XML definition trees for structure symbols, ranks them by importance, and maintains a compact registry snapshot for lookup queries.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run; prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "snapshot path (default: .symdex/index.db under the corpus root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(statsCmd)
}

var (
	flagBatchSize   int
	flagMaxPriority string
	flagHeuristics  string
	flagRecursive   bool
	flagVerbose     bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a definition corpus into a registry snapshot",
	Long:  "Scans the corpus for structure symbols, runs the registration pipeline, and writes the registry to a SQLite snapshot.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().IntVar(&flagBatchSize, "batch-size", 50, "registration batch size")
	indexCmd.Flags().StringVar(&flagMaxPriority, "max-priority", "verylow", "registration threshold: essential|high|medium|low|verylow")
	indexCmd.Flags().StringVar(&flagHeuristics, "heuristics", "", "YAML heuristics file overriding the built-in priority rules")
	indexCmd.Flags().BoolVar(&flagRecursive, "recursive", true, "descend into subdirectories")
	indexCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "log pipeline progress to stderr")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	root, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	dbPath := resolveDBPath(root)

	maxPriority, err := symdex.ParsePriority(flagMaxPriority)
	if err != nil {
		return err
	}

	opts := []symdex.Option{
		symdex.WithSnapshot(dbPath),
		symdex.WithBatchSize(flagBatchSize),
		symdex.WithMaxPriority(maxPriority),
	}
	if flagVerbose {
		opts = append(opts, symdex.WithLogger(symdex.NewTextLogger(slog.LevelDebug)))
	}
	if flagHeuristics != "" {
		cfg, err := symdex.LoadHeuristics(flagHeuristics)
		if err != nil {
			return err
		}
		opts = append(opts, symdex.WithHeuristics(cfg))
	}
	if sources := discoverSources(root); len(sources) > 0 {
		opts = append(opts, symdex.WithSources(sources))
	}

	engine := symdex.New(opts...)
	var registered int
	if flagRecursive {
		registered, err = engine.Run(root)
		if err != nil {
			return fmt.Errorf("indexing: %w", err)
		}
	} else {
		registered = engine.IndexDirectory(root, false)
		if err := engine.WriteSnapshot(dbPath); err != nil {
			return fmt.Errorf("indexing: %w", err)
		}
	}

	stats := engine.Stats()
	fmt.Fprintf(os.Stderr, "Indexed %s in %s: %d symbols registered (%d sources, load %.2f)\n",
		root,
		time.Since(start).Round(time.Millisecond),
		registered,
		stats.Registry.Sources,
		stats.Registry.LoadFactor,
	)
	fmt.Fprintf(os.Stderr, "Snapshot: %s\n", dbPath)
	return nil
}

// discoverSources treats each direct subdirectory of root carrying a Defs
// folder as one content source, identified by its directory name. An empty
// result means root itself is the corpus.
func discoverSources(root string) []symdex.Source {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	var sources []symdex.Source
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		srcRoot := filepath.Join(root, e.Name())
		if info, err := os.Stat(filepath.Join(srcRoot, "Defs")); err != nil || !info.IsDir() {
			continue
		}
		sources = append(sources, symdex.Source{
			ID:   e.Name(),
			Name: e.Name(),
			Root: srcRoot,
		})
	}
	return sources
}

var (
	flagSymbolsMax    string
	flagSymbolsSource string
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List symbols from a registry snapshot",
	Args:  cobra.NoArgs,
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagSymbolsMax, "max-priority", "", "only symbols at or above this tier")
	symbolsCmd.Flags().StringVar(&flagSymbolsSource, "source", "", "only symbols from this content source")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	s, err := openSnapshot()
	if err != nil {
		return err
	}
	defer s.Close()

	var filter store.SymbolFilter
	if flagSymbolsMax != "" {
		tier, err := symdex.ParsePriority(flagSymbolsMax)
		if err != nil {
			return err
		}
		filter.MaxPriority = &tier
	}
	filter.Source = flagSymbolsSource

	records, err := s.Symbols(filter)
	if err != nil {
		return err
	}
	return outputSymbols(records)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show statistics for a registry snapshot",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	s, err := openSnapshot()
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.Symbols(store.SymbolFilter{})
	if err != nil {
		return err
	}
	sources, err := s.Sources()
	if err != nil {
		return err
	}
	indexedAt, err := s.GetMetadata("indexed_at")
	if err != nil {
		return err
	}

	stats := snapshotStats{
		Symbols:   len(records),
		Sources:   len(sources),
		IndexedAt: indexedAt,
		ByTier:    make(map[string]int),
	}
	for _, rec := range records {
		stats.ByTier[rec.Priority.String()]++
	}
	return outputStats(stats)
}

// openSnapshot opens the snapshot at --db, or the default path under the
// current directory.
func openSnapshot() (*store.Store, error) {
	s, err := store.OpenExisting(resolveDBPath("."))
	if errors.Is(err, store.ErrSnapshotMissing) {
		return nil, fmt.Errorf("%w; run 'symdex index' first", err)
	}
	return s, err
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// resolveDBPath returns the snapshot path from the --db flag or the default
// .symdex/index.db under root.
func resolveDBPath(root string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(root, flagDB)
	}
	return filepath.Join(root, ".symdex", "index.db")
}
