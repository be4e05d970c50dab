package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/symdex/internal/perf"
)

func TestHashName_FNV1a(t *testing.T) {
	t.Parallel()
	// Reference vectors for 32-bit FNV-1a.
	assert.Equal(t, uint32(2166136261), hashName(""))
	assert.Equal(t, uint32(0xe40c292c), hashName("a"))
	assert.Equal(t, uint32(0xbf9cf968), hashName("foobar"))
}

func TestRegister_Idempotent(t *testing.T) {
	t.Parallel()
	r := New()
	r.Register("WallCorner")
	r.Register("WallCorner")

	assert.True(t, r.IsRegistered("WallCorner"))
	assert.Equal(t, 1, r.Stats().Registered)
}

func TestRegister_EmptyName(t *testing.T) {
	t.Parallel()
	r := New()
	r.Register("")
	assert.False(t, r.IsRegistered(""))
	assert.Equal(t, 0, r.Stats().Registered)
}

func TestRegisterFrom_PriorityOnlyTightens(t *testing.T) {
	t.Parallel()
	r := New()

	r.RegisterFrom("Gatehouse", "core", High)
	require.Equal(t, High, r.Priority("Gatehouse"))

	// Loosening is ignored.
	r.RegisterFrom("Gatehouse", "core", Low)
	assert.Equal(t, High, r.Priority("Gatehouse"))

	// Tightening is applied.
	r.RegisterFrom("Gatehouse", "core", Essential)
	assert.Equal(t, Essential, r.Priority("Gatehouse"))
}

func TestSetPriority_UnconditionalOverwrite(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterFrom("Keep", "core", Essential)

	r.SetPriority("Keep", Low)
	assert.Equal(t, Low, r.Priority("Keep"))

	// Absent names are a no-op, not an insert.
	r.SetPriority("Moat", High)
	assert.False(t, r.IsRegistered("Moat"))
	assert.Equal(t, 1, r.Stats().Registered)
}

func TestResize_NoLoss(t *testing.T) {
	t.Parallel()
	r := New()

	// Well past the initial capacity x 0.75 watermark, forcing several
	// doublings.
	const n = 5000
	for i := 0; i < n; i++ {
		r.Register(fmt.Sprintf("Symbol%04d", i))
	}

	stats := r.Stats()
	assert.Equal(t, n, stats.Registered)
	assert.GreaterOrEqual(t, stats.Capacity, n)
	assert.LessOrEqual(t, stats.LoadFactor, 0.75)

	for i := 0; i < n; i++ {
		require.True(t, r.IsRegistered(fmt.Sprintf("Symbol%04d", i)), "symbol %d lost on resize", i)
	}
	assert.Len(t, r.AllSymbols(), n)
}

func TestCollidingNames_Independent(t *testing.T) {
	t.Parallel()
	// "costarring" and "liquid" are a known 32-bit FNV-1a collision.
	require.Equal(t, hashName("costarring"), hashName("liquid"))

	r := New()
	r.Register("costarring")
	assert.True(t, r.IsRegistered("costarring"))
	assert.False(t, r.IsRegistered("liquid"))

	r.RegisterFrom("liquid", "core", High)
	assert.True(t, r.IsRegistered("liquid"))
	assert.Equal(t, High, r.Priority("liquid"))
	assert.Equal(t, VeryLow, r.Priority("costarring"))
	assert.Equal(t, 2, r.Stats().Registered)
}

func TestSymbolsByPriority(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterFrom("Core", "base", Essential)
	r.RegisterFrom("Wall", "base", High)
	r.RegisterFrom("Room", "base", Medium)
	r.RegisterFrom("Rubble", "base", Low)
	r.Register("Scrap") // VeryLow

	got := r.SymbolsByPriority(Medium)
	assert.ElementsMatch(t, []string{"Core", "Wall", "Room"}, got)

	assert.ElementsMatch(t, []string{"Core"}, r.SymbolsByPriority(Essential))
	assert.Len(t, r.SymbolsByPriority(VeryLow), 5)
}

func TestSymbolsFromSource(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterFrom("Tower", "core", High)
	r.RegisterFrom("Shack", "outlands", Low)
	r.Register("Orphan")

	assert.ElementsMatch(t, []string{"Tower"}, r.SymbolsFromSource("core"))
	assert.ElementsMatch(t, []string{"Shack"}, r.SymbolsFromSource("outlands"))
	assert.Empty(t, r.SymbolsFromSource("never-loaded"))
}

func TestProvenanceTable_ExhaustionFallsBackToUnknown(t *testing.T) {
	t.Parallel()
	r := New()
	for i := 0; i < MaxSources+10; i++ {
		r.RegisterFrom(fmt.Sprintf("Sym%d", i), fmt.Sprintf("source%d", i), Medium)
	}

	stats := r.Stats()
	assert.Equal(t, MaxSources, stats.Sources)
	// Registration itself never fails on provenance exhaustion.
	assert.Equal(t, MaxSources+10, stats.Registered)
	assert.True(t, r.IsRegistered(fmt.Sprintf("Sym%d", MaxSources+5)))
	// The overflow source is not tracked.
	assert.Empty(t, r.SymbolsFromSource(fmt.Sprintf("source%d", MaxSources+5)))
}

func TestStats_LookupCounters(t *testing.T) {
	t.Parallel()
	c := perf.NewBasicCollector()
	r := New(WithCollector(c))
	r.Register("Hall")

	assert.True(t, r.IsRegistered("Hall"))
	assert.False(t, r.IsRegistered("Basement"))
	assert.False(t, r.IsRegistered("Basement"))

	stats := r.Stats()
	assert.Equal(t, uint64(3), stats.Lookups)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.InDelta(t, 1.0/3.0, stats.HitRate, 1e-9)

	assert.Equal(t, int64(1), c.Counter("registry.lookup.hits"))
	assert.Equal(t, int64(2), c.Counter("registry.lookup.misses"))
}

func TestInterning_SingleCopyPerName(t *testing.T) {
	t.Parallel()
	r := New()
	r.Register("Bastion")
	r.RegisterFrom("Bastion", "core", High)
	r.Register("Bastion")

	assert.Equal(t, 1, r.Stats().InternedStrings)
}

func TestEstimatedMemoryUsage_GrowsWithEntries(t *testing.T) {
	t.Parallel()
	r := New()
	base := r.EstimatedMemoryUsage()
	require.Positive(t, base)

	for i := 0; i < 100; i++ {
		r.Register(fmt.Sprintf("Symbol%d", i))
	}
	assert.Greater(t, r.EstimatedMemoryUsage(), base)
}

func TestExport_ResolvesProvenance(t *testing.T) {
	t.Parallel()
	r := New()
	r.RegisterFrom("Tower", "core", High)
	r.Register("Orphan")

	records := r.Export()
	require.Len(t, records, 2)

	byName := make(map[string]Record, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}
	assert.Equal(t, "core", byName["Tower"].Source)
	assert.Equal(t, High, byName["Tower"].Priority)
	assert.Equal(t, hashName("Tower"), byName["Tower"].Hash)
	assert.Equal(t, "", byName["Orphan"].Source)
	assert.Equal(t, VeryLow, byName["Orphan"].Priority)
}

func TestPriorityFlags_RoundTrip(t *testing.T) {
	t.Parallel()
	for _, p := range []PriorityClass{Essential, High, Medium, Low, VeryLow} {
		var f entryFlags
		assert.Equal(t, p, f.withPriority(p).priority(), "tier %s", p)
	}
}

func TestParsePriority(t *testing.T) {
	t.Parallel()
	p, err := ParsePriority("Medium")
	require.NoError(t, err)
	assert.Equal(t, Medium, p)

	_, err = ParsePriority("gigantic")
	assert.Error(t, err)
}
