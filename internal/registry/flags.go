package registry

// entryFlags is the per-slot metadata bitset. One byte per entry.
type entryFlags uint8

const (
	flagRegistered entryFlags = 1 << iota
	flagEssential
	flagTier1
	flagTier2
	flagReference
	flagCached
)

func (f entryFlags) registered() bool { return f&flagRegistered != 0 }

// priority derives the stored tier from the three priority bits with fixed
// precedence: essential, then tier1+tier2 (Low), then tier1 (High), then
// tier2 (Medium). No priority bit set means VeryLow.
func (f entryFlags) priority() PriorityClass {
	switch {
	case f&flagEssential != 0:
		return Essential
	case f&(flagTier1|flagTier2) == flagTier1|flagTier2:
		return Low
	case f&flagTier1 != 0:
		return High
	case f&flagTier2 != 0:
		return Medium
	default:
		return VeryLow
	}
}

// withPriority returns f with the three priority bits rewritten to encode p.
func (f entryFlags) withPriority(p PriorityClass) entryFlags {
	f &^= flagEssential | flagTier1 | flagTier2
	switch p {
	case Essential:
		f |= flagEssential
	case High:
		f |= flagTier1
	case Medium:
		f |= flagTier2
	case Low:
		f |= flagTier1 | flagTier2
	}
	return f
}
