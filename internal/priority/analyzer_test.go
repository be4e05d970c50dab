package priority

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/symdex/internal/registry"
)

// writeCorpusFile writes an XML file under root/folder and returns its path.
func writeCorpusFile(t *testing.T, root, folder, name, content string) string {
	t.Helper()
	dir := filepath.Join(root, folder)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func refs(tag, value string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("<" + tag + ">" + value + "</" + tag + ">\n")
	}
	return b.String()
}

func TestInitialize_CountsReferences(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeCorpusFile(t, root, "Settlements", "camps.xml",
		"<Defs>\n"+refs("symbol", "Frequent", 5)+refs("symbol", "Occasional", 3)+refs("startingSymbol", "Rare", 1)+"</Defs>")

	a := New(DefaultConfig())
	a.Initialize([]string{root})

	assert.Equal(t, 5, a.ReferenceCount("Frequent"))
	assert.Equal(t, 3, a.ReferenceCount("Occasional"))
	assert.Equal(t, 1, a.ReferenceCount("Rare"))
	assert.Equal(t, 0, a.ReferenceCount("Unseen"))
}

func TestInitialize_CorpusWithMultibyteRunes(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	// Unicode lowering changes byte length for these runes (Ⱥ grows, İ
	// shrinks); the tag search must keep its offsets aligned with the
	// original bytes.
	writeCorpusFile(t, root, "Settlements", "camps.xml",
		strings.Repeat("Ⱥ", 40)+"<symbol>MainHall</symbol>"+strings.Repeat("İ", 40))

	a := New(DefaultConfig())
	a.Initialize([]string{root})

	assert.Equal(t, 1, a.ReferenceCount("MainHall"))
}

func TestClassifyName_ReferenceThresholds(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeCorpusFile(t, root, "Factions", "raiders.xml",
		refs("symbol", "Frequent", 6)+refs("symbol", "Common", 3)+refs("symbol", "Seen", 1))

	a := New(DefaultConfig())
	a.Initialize([]string{root})

	assert.Equal(t, registry.Essential, a.ClassifyName("Frequent"))
	assert.Equal(t, registry.High, a.ClassifyName("Common"))
	assert.Equal(t, registry.Medium, a.ClassifyName("Seen"))
}

func TestClassifyName_ReferenceDataWinsOverHeuristics(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	// "RuinedShack" would be Low by the variant heuristic, but the corpus
	// references it heavily.
	writeCorpusFile(t, root, "MapGeneration", "ruins.xml", refs("symbolDef", "RuinedShack", 5))

	a := New(DefaultConfig())
	a.Initialize([]string{root})

	assert.Equal(t, registry.Essential, a.ClassifyName("RuinedShack"))
}

func TestClassifyName_NamingHeuristics(t *testing.T) {
	t.Parallel()
	a := New(DefaultConfig())

	tests := []struct {
		name string
		want registry.PriorityClass
	}{
		{"MainHall", registry.Essential}, // primary token
		{"BaseCamp", registry.Essential}, // primary token
		{"Layout1", registry.Essential},  // first-variant suffix
		{"ShedA", registry.Essential},    // first-variant letter suffix
		{"Layout11", registry.Low},       // digit stem, not a first variant
		{"Gatehouse", registry.High},     // high token
		{"OuterTower", registry.High},    // high token
		{"StorageSpot", registry.Medium}, // medium token
		{"RuinedShed", registry.Low},     // variant token
		{"Shed3", registry.Low},          // trailing digit
		{"Nondescript", registry.Low},    // default
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.ClassifyName(tt.name), "name %s", tt.name)
	}
}

func TestGetPriority_Memoized(t *testing.T) {
	t.Parallel()
	a := New(DefaultConfig())

	p := a.GetPriority("Gatehouse")
	assert.Equal(t, registry.High, p)
	assert.Equal(t, 1, a.Stats().CachedPriorities)

	// Second call hits the cache.
	assert.Equal(t, registry.High, a.GetPriority("Gatehouse"))
	assert.Equal(t, 1, a.Stats().CachedPriorities)
}

func TestFilterByPriority(t *testing.T) {
	t.Parallel()
	a := New(DefaultConfig())

	names := []string{"MainHall", "Gatehouse", "StorageSpot", "RuinedShed", "Nondescript"}
	got := a.FilterByPriority(names, registry.Medium)
	// Exactly Essential, High, and Medium survive a Medium threshold.
	assert.Equal(t, []string{"MainHall", "Gatehouse", "StorageSpot"}, got)

	assert.Equal(t, []string{"MainHall"}, a.FilterByPriority(names, registry.Essential))
	assert.Len(t, a.FilterByPriority(names, registry.VeryLow), 5)
}

func TestPrioritizeOrder(t *testing.T) {
	t.Parallel()
	a := New(DefaultConfig())

	names := []string{"RuinedShed", "Gatehouse", "MainHall", "StorageSpot", "OuterTower"}
	got := a.PrioritizeOrder(names)
	// Essential first, then High (insertion order preserved), then Medium,
	// then Low.
	assert.Equal(t, []string{"MainHall", "Gatehouse", "OuterTower", "StorageSpot", "RuinedShed"}, got)
}

func TestCleanupTemporaryCaches_KeepsComputedState(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeCorpusFile(t, root, "Settlements", "camps.xml", refs("symbol", "Frequent", 5))

	a := New(DefaultConfig())
	a.Initialize([]string{root})
	require.Equal(t, registry.Essential, a.GetPriority("Frequent"))
	require.Positive(t, a.Stats().PendingCorpusSize)

	a.CleanupTemporaryCaches()

	assert.Zero(t, a.Stats().PendingCorpusSize)
	assert.Equal(t, 5, a.ReferenceCount("Frequent"))
	assert.Equal(t, registry.Essential, a.GetPriority("Frequent"))
}

func TestInitialize_SkipsFoldersOutsideCorpus(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeCorpusFile(t, root, "ThingDefs", "things.xml", refs("symbol", "NotCounted", 5))

	a := New(DefaultConfig())
	a.Initialize([]string{root})

	assert.Equal(t, 0, a.ReferenceCount("NotCounted"))
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "heuristics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("essential_refs: 10\nhigh_tokens: [rampart]\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.EssentialRefs)
	assert.Equal(t, []string{"rampart"}, cfg.HighTokens)
	// Untouched fields keep defaults.
	assert.Equal(t, 3, cfg.HighRefs)
	assert.Equal(t, DefaultConfig().CorpusFolders, cfg.CorpusFolders)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
