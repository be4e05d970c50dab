package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jward/symdex"
)

var validFormats = []string{"json", "text"}

func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q (valid: %s)", format, strings.Join(validFormats, ", "))
}

type snapshotStats struct {
	Symbols   int            `json:"symbols"`
	Sources   int            `json:"sources"`
	IndexedAt string         `json:"indexed_at,omitempty"`
	ByTier    map[string]int `json:"by_tier"`
}

type symbolRow struct {
	Name     string `json:"name"`
	Hash     string `json:"hash"`
	Priority string `json:"priority"`
	Source   string `json:"source,omitempty"`
}

func outputSymbols(records []symdex.Record) error {
	if flagFormat == "json" {
		rows := make([]symbolRow, len(records))
		for i, rec := range records {
			rows[i] = symbolRow{
				Name:     rec.Name,
				Hash:     fmt.Sprintf("%08x", rec.Hash),
				Priority: rec.Priority.String(),
				Source:   rec.Source,
			}
		}
		return outputJSON(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPRIORITY\tSOURCE\tHASH")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%08x\n", rec.Name, rec.Priority, rec.Source, rec.Hash)
	}
	return w.Flush()
}

func outputStats(stats snapshotStats) error {
	if flagFormat == "json" {
		return outputJSON(stats)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Symbols:\t%d\n", stats.Symbols)
	fmt.Fprintf(w, "Sources:\t%d\n", stats.Sources)
	if stats.IndexedAt != "" {
		fmt.Fprintf(w, "Indexed at:\t%s\n", stats.IndexedAt)
	}

	tiers := make([]string, 0, len(stats.ByTier))
	for tier := range stats.ByTier {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		fmt.Fprintf(w, "  %s:\t%d\n", tier, stats.ByTier[tier])
	}
	return w.Flush()
}

func outputJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
