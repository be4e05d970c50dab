package priority

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the analyzer's heuristics as plain data: reference-count
// thresholds, keyword lists, and the shape of the secondary corpus. The
// defaults match the corpus the thresholds were tuned against; override via
// a YAML file when retuning for a different mod ecosystem.
type Config struct {
	// Reference-count thresholds, checked in this order.
	EssentialRefs int `yaml:"essential_refs"`
	HighRefs      int `yaml:"high_refs"`
	MediumRefs    int `yaml:"medium_refs"`

	// Naming heuristics, applied to the lower-cased name when no reference
	// data exists.
	PrimaryTokens        []string `yaml:"primary_tokens"`
	FirstVariantSuffixes []string `yaml:"first_variant_suffixes"`
	HighTokens           []string `yaml:"high_tokens"`
	MediumTokens         []string `yaml:"medium_tokens"`
	VariantTokens        []string `yaml:"variant_tokens"`

	// Secondary corpus layout: conventional subfolders of each content
	// source's definitions directory, and the reference-style tags counted
	// within them.
	CorpusFolders []string `yaml:"corpus_folders"`
	ReferenceTags []string `yaml:"reference_tags"`
}

// DefaultConfig returns the built-in heuristics.
func DefaultConfig() Config {
	return Config{
		EssentialRefs:        5,
		HighRefs:             3,
		MediumRefs:           1,
		PrimaryTokens:        []string{"main", "base", "default", "primary", "standard", "core"},
		FirstVariantSuffixes: []string{"1", "a"},
		HighTokens:           []string{"wall", "door", "entrance", "gate", "tower"},
		MediumTokens:         []string{"room", "floor", "corner", "storage"},
		VariantTokens:        []string{"variant", "alt", "ruined", "damaged"},
		CorpusFolders:        []string{"Settlements", "Factions", "MapGeneration", "GenSteps", "Bases"},
		ReferenceTags:        []string{"symbol", "symbolDef", "startingSymbol"},
	}
}

// LoadConfig reads a YAML heuristics file over the defaults; fields absent
// from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read heuristics config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse heuristics config %s: %w", path, err)
	}
	return cfg, nil
}
