// Package registry implements the symbol registry: a tombstone-free
// open-addressing hash table mapping symbol names to compact entries (32-bit
// hash, interned name, provenance index, one byte of flags). Entries are
// never deleted, so probing needs no tombstone logic; the table only grows.
package registry

import (
	"io"
	"log/slog"
	"unsafe"

	"github.com/jward/symdex/internal/perf"
)

// initialCapacity is the slot count of a fresh table. Always a power of 2
// after doubling, but the probing only requires it to be positive.
const initialCapacity = 1024

// maxLoadFactor triggers a resize when count/capacity reaches it, checked
// before every insert.
const maxLoadFactor = 0.75

// entry is one slot in the backing array. An empty name marks a vacant slot.
type entry struct {
	hash  uint32
	name  string
	prov  int16
	flags entryFlags
}

// Registry is the symbol lookup table. It is not safe for concurrent use;
// all writes happen during the one-shot registration pipeline and reads are
// expected from a single logical thread afterward. Callers needing
// concurrent access must wrap it in their own locking.
type Registry struct {
	entries  []entry
	count    int
	interned map[string]string
	prov     *provenanceTable

	log  *slog.Logger
	perf perf.Collector

	lookups    uint64
	hits       uint64
	misses     uint64
	collisions uint64
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the log sink. Defaults to a discarding logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithCollector sets the timing/counter sink. Defaults to a no-op sink.
func WithCollector(c perf.Collector) Option {
	return func(r *Registry) { r.perf = c }
}

// New creates an empty Registry with the default initial capacity.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries:  make([]entry, initialCapacity),
		interned: make(map[string]string),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		perf:     perf.NoopCollector{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.prov = newProvenanceTable(r.log)
	return r
}

// hashName is 32-bit FNV-1a: offset basis 2166136261, prime 16777619, one
// XOR-then-multiply step per byte.
func hashName(name string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(name); i++ {
		h ^= uint32(name[i])
		h *= 16777619
	}
	return h
}

// intern returns the canonical copy of name, retaining at most one copy of
// the string bytes per distinct symbol.
func (r *Registry) intern(name string) string {
	if canonical, ok := r.interned[name]; ok {
		return canonical
	}
	r.interned[name] = name
	return name
}

// findSlot probes for name starting at hash mod capacity, advancing by +1
// with wraparound. Returns the slot index and whether it holds name; a
// vacant slot means "not present, insert here". A full-table probe without
// either result should be unreachable under the resize discipline and is
// reported as (-1, false).
func (r *Registry) findSlot(hash uint32, name string) (int, bool) {
	capacity := len(r.entries)
	idx := int(hash % uint32(capacity))
	for i := 0; i < capacity; i++ {
		e := &r.entries[idx]
		if e.name == "" {
			return idx, false
		}
		if e.hash == hash && e.name == name {
			return idx, true
		}
		idx++
		if idx == capacity {
			idx = 0
		}
	}
	r.log.Error("probe exhausted full table without vacancy", "name", name, "capacity", capacity)
	return -1, false
}

// upsert returns the slot holding name, inserting a fresh entry if absent.
// Reports whether the entry already existed. The returned pointer is nil
// only on an unrecoverable probe failure.
func (r *Registry) upsert(name string) (*entry, bool) {
	if r.needsResize() {
		r.resize()
	}
	hash := hashName(name)

	// Count the first collision of this insert attempt exactly once.
	first := int(hash % uint32(len(r.entries)))
	if e := &r.entries[first]; e.name != "" && (e.hash != hash || e.name != name) {
		r.collisions++
	}

	idx, found := r.findSlot(hash, name)
	if idx < 0 {
		// Full probe cycle. Resize once and retry before giving up.
		r.resize()
		idx, found = r.findSlot(hash, name)
		if idx < 0 {
			return nil, false
		}
	}
	if found {
		return &r.entries[idx], true
	}
	// Zero flags encode VeryLow, the default tier for a fresh entry.
	r.entries[idx] = entry{
		hash: hash,
		name: r.intern(name),
		prov: UnknownSource,
	}
	r.count++
	return &r.entries[idx], false
}

func (r *Registry) needsResize() bool {
	return float64(r.count+1) > float64(len(r.entries))*maxLoadFactor
}

// resize doubles the backing array and rehashes every occupied slot using
// its stored hash. Must never drop an entry.
func (r *Registry) resize() {
	defer r.perf.Span("registry.resize")()
	old := r.entries
	capacity := len(old) * 2
	r.entries = make([]entry, capacity)
	for i := range old {
		e := &old[i]
		if e.name == "" {
			continue
		}
		idx := int(e.hash % uint32(capacity))
		for r.entries[idx].name != "" {
			idx++
			if idx == capacity {
				idx = 0
			}
		}
		r.entries[idx] = *e
	}
	r.log.Debug("registry resized", "capacity", capacity, "count", r.count)
}

// Register idempotently marks name as registered. Absent names are inserted
// with the lowest priority and unknown provenance; present names only get
// the registered bit set, which is never cleared afterward.
func (r *Registry) Register(name string) {
	if name == "" {
		return
	}
	e, existed := r.upsert(name)
	if e == nil {
		return
	}
	if existed {
		r.perf.Hit("registry.register")
	} else {
		r.perf.Miss("registry.register")
	}
	e.flags |= flagRegistered
}

// RegisterFrom registers name with provenance attribution and a priority
// hint. The priority is only ever tightened: a hint less important than the
// stored tier leaves the entry untouched.
func (r *Registry) RegisterFrom(name, source string, priority PriorityClass) {
	if name == "" {
		return
	}
	e, existed := r.upsert(name)
	if e == nil {
		return
	}
	if existed {
		r.perf.Hit("registry.register")
	} else {
		r.perf.Miss("registry.register")
	}
	e.flags |= flagRegistered
	if idx := r.prov.add(source); idx != UnknownSource {
		e.prov = idx
	}
	if priority < e.flags.priority() {
		e.flags = e.flags.withPriority(priority)
	}
}

// IsRegistered reports whether name has a registered entry. Never fails:
// empty or unknown names return false.
func (r *Registry) IsRegistered(name string) bool {
	if name == "" {
		return false
	}
	r.lookups++
	idx, found := r.findSlot(hashName(name), name)
	if !found || idx < 0 {
		r.misses++
		r.perf.Miss("registry.lookup")
		return false
	}
	r.hits++
	r.perf.Hit("registry.lookup")
	return r.entries[idx].flags.registered()
}

// SetPriority unconditionally overwrites the priority of an existing entry.
// No-op for unknown names.
func (r *Registry) SetPriority(name string, priority PriorityClass) {
	if name == "" {
		return
	}
	idx, found := r.findSlot(hashName(name), name)
	if !found || idx < 0 {
		return
	}
	r.entries[idx].flags = r.entries[idx].flags.withPriority(priority)
}

// Priority returns the stored tier for name; VeryLow for unknown names.
func (r *Registry) Priority(name string) PriorityClass {
	idx, found := r.findSlot(hashName(name), name)
	if !found || idx < 0 {
		return VeryLow
	}
	return r.entries[idx].flags.priority()
}

// AllSymbols returns every registered name in table slot order.
func (r *Registry) AllSymbols() []string {
	var names []string
	for i := range r.entries {
		e := &r.entries[i]
		if e.name != "" && e.flags.registered() {
			names = append(names, e.name)
		}
	}
	return names
}

// SymbolsByPriority returns registered names whose tier is at or above
// maxPriority (ordinal <= maxPriority's ordinal).
func (r *Registry) SymbolsByPriority(maxPriority PriorityClass) []string {
	var names []string
	for i := range r.entries {
		e := &r.entries[i]
		if e.name != "" && e.flags.registered() && e.flags.priority().AtLeast(maxPriority) {
			names = append(names, e.name)
		}
	}
	return names
}

// SymbolsFromSource returns registered names attributed to the given content
// source; empty when the source is unknown.
func (r *Registry) SymbolsFromSource(source string) []string {
	idx, ok := r.prov.lookup(source)
	if !ok {
		return nil
	}
	var names []string
	for i := range r.entries {
		e := &r.entries[i]
		if e.name != "" && e.flags.registered() && e.prov == idx {
			names = append(names, e.name)
		}
	}
	return names
}

// Stats is a point-in-time snapshot of registry counters.
type Stats struct {
	Registered      int
	Capacity        int
	LoadFactor      float64
	Collisions      uint64
	Lookups         uint64
	Hits            uint64
	Misses          uint64
	HitRate         float64
	Sources         int
	InternedStrings int
}

// Stats returns current registry statistics.
func (r *Registry) Stats() Stats {
	s := Stats{
		Registered:      r.count,
		Capacity:        len(r.entries),
		LoadFactor:      float64(r.count) / float64(len(r.entries)),
		Collisions:      r.collisions,
		Lookups:         r.lookups,
		Hits:            r.hits,
		Misses:          r.misses,
		Sources:         r.prov.count(),
		InternedStrings: len(r.interned),
	}
	if r.lookups > 0 {
		s.HitRate = float64(r.hits) / float64(r.lookups)
	}
	return s
}

// EstimatedMemoryUsage approximates the registry's retained bytes: the fixed
// per-slot cost times capacity, the interned string bytes, and rough map and
// provenance-array overheads.
func (r *Registry) EstimatedMemoryUsage() int64 {
	const mapEntryOverhead = 48 // rough per-entry cost of a Go map
	total := int64(len(r.entries)) * int64(unsafe.Sizeof(entry{}))
	for name := range r.interned {
		total += int64(len(name)) + mapEntryOverhead
	}
	for _, name := range r.prov.names {
		total += int64(len(name))*2 + mapEntryOverhead + 16 // array slot + index cache
	}
	return total
}

// Record is one exported registry entry, used for snapshot persistence.
type Record struct {
	Name     string
	Hash     uint32
	Priority PriorityClass
	Source   string
}

// Export returns all registered entries with provenance resolved back to
// source identifiers. Slot order.
func (r *Registry) Export() []Record {
	var records []Record
	for i := range r.entries {
		e := &r.entries[i]
		if e.name == "" || !e.flags.registered() {
			continue
		}
		records = append(records, Record{
			Name:     e.name,
			Hash:     e.hash,
			Priority: e.flags.priority(),
			Source:   r.prov.name(e.prov),
		})
	}
	return records
}

// Sources returns the tracked content-source identifiers in index order.
func (r *Registry) Sources() []string {
	out := make([]string, len(r.prov.names))
	copy(out, r.prov.names)
	return out
}
