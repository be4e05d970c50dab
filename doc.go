// Package symdex discovers named structure symbols in XML definition
// corpora, ranks them by importance, and maintains a memory-compact symbol
// registry for fast runtime lookups.
//
// # Pipeline
//
// symdex runs a one-shot registration pipeline:
//
//  1. Analyze: scan a secondary corpus (settlement, faction, and map-gen
//     definitions under each content source) and build a reference-frequency
//     table used to classify symbol importance.
//
//  2. Extract: sniff each *.xml file's prefix for structural markers, then
//     stream candidate files pulling out the text of name-bearing elements
//     (defName and its symbol-reference aliases). Malformed documents fall
//     back to a raw substring scan rather than losing the whole file.
//
//  3. Register: deduplicate the discovered names, filter them by a priority
//     threshold, order them most-important-first, and register them into the
//     hash registry in fixed-size batches.
//
// The registry is a bespoke open-addressing hash table (linear probing, no
// tombstones, bit-packed per-entry flags, interned names, and a small
// provenance side table) built for minimal per-entry memory overhead.
//
// # Usage
//
// Create an Engine, run the pipeline, and query the registry:
//
//	e := symdex.New(
//		symdex.WithSources([]symdex.Source{{ID: "core", Root: "mods/core"}}),
//		symdex.WithSnapshot(".symdex/index.db"),
//	)
//
//	registered, err := e.Run("mods")
//	if err != nil { ... }
//
//	reg := e.Registry()
//	if reg.IsRegistered("Gatehouse") { ... }
//	essential := reg.SymbolsByPriority(symdex.Essential)
//
// All mutation happens inside Run; afterwards the registry serves reads
// from a single logical thread of control. There is no registry-level
// locking; callers needing concurrent access after late writes must add
// their own synchronization.
//
// # Observability
//
// The Engine accepts an optional [Logger] (slog-backed) and an optional
// [Collector] receiving timing spans and hit/miss counters. Both default to
// no-ops and never affect pipeline behavior.
package symdex
