package symdex

import (
	"github.com/jward/symdex/internal/priority"
	"github.com/jward/symdex/internal/registry"
	"github.com/jward/symdex/internal/scan"
)

// Public type aliases for internal types used in the Engine API. These are
// Go type aliases (=), identical to the internal types at compile time.

type Registry = registry.Registry
type PriorityClass = registry.PriorityClass
type RegistryStats = registry.Stats
type Record = registry.Record
type HeuristicsConfig = priority.Config
type AnalyzerStats = priority.Stats
type ScanConfig = scan.Config
type ScannerStats = scan.Stats

// Priority tiers, lowest ordinal most important.
const (
	Essential = registry.Essential
	High      = registry.High
	Medium    = registry.Medium
	Low       = registry.Low
	VeryLow   = registry.VeryLow
)

// ParsePriority parses a tier name ("essential" ... "verylow").
func ParsePriority(s string) (PriorityClass, error) {
	return registry.ParsePriority(s)
}

// DefaultHeuristics returns the built-in priority heuristics.
func DefaultHeuristics() HeuristicsConfig {
	return priority.DefaultConfig()
}

// LoadHeuristics reads a YAML heuristics file over the defaults.
func LoadHeuristics(path string) (HeuristicsConfig, error) {
	return priority.LoadConfig(path)
}

// DefaultScanConfig returns the built-in extraction grammar.
func DefaultScanConfig() ScanConfig {
	return scan.DefaultConfig()
}
