package registry

import "log/slog"

// MaxSources caps the provenance table. Entries attributed beyond the cap
// fall back to UnknownSource; the symbol itself still registers.
const MaxSources = 256

// UnknownSource is the provenance index sentinel for symbols whose
// originating content source is not tracked.
const UnknownSource int16 = -1

// provenanceTable maps content-source identifiers to small integer indexes
// so each table slot carries two bytes of provenance instead of a string.
// Append-only; sources are never removed.
type provenanceTable struct {
	names []string         // index -> identifier
	index map[string]int16 // identifier -> index
	log   *slog.Logger
	full  bool             // set once the cap warning has been emitted
}

func newProvenanceTable(log *slog.Logger) *provenanceTable {
	return &provenanceTable{
		index: make(map[string]int16),
		log:   log,
	}
}

// lookup returns the index for a known identifier.
func (t *provenanceTable) lookup(id string) (int16, bool) {
	idx, ok := t.index[id]
	return idx, ok
}

// add returns the index for id, appending it if new. Returns UnknownSource
// once the table is at capacity.
func (t *provenanceTable) add(id string) int16 {
	if id == "" {
		return UnknownSource
	}
	if idx, ok := t.index[id]; ok {
		return idx
	}
	if len(t.names) >= MaxSources {
		if !t.full {
			t.full = true
			t.log.Warn("provenance table full, attributing further sources as unknown",
				"capacity", MaxSources, "source", id)
		}
		return UnknownSource
	}
	idx := int16(len(t.names))
	t.names = append(t.names, id)
	t.index[id] = idx
	return idx
}

// name returns the identifier stored at idx, or "" for UnknownSource or an
// out-of-range index.
func (t *provenanceTable) name(idx int16) string {
	if idx < 0 || int(idx) >= len(t.names) {
		return ""
	}
	return t.names[idx]
}

func (t *provenanceTable) count() int { return len(t.names) }
