package symdex

// ResolvedSymbol is one (name, origin) pair enumerated from an external
// authoritative resolver registry.
type ResolvedSymbol struct {
	Name   string
	Origin string
}

// Resolver is the optional capability bridging to an external authoritative
// symbol resolver. The pipeline consumes it through a single best-effort,
// one-way synchronization step; absence or failure never affects the rest
// of the pipeline.
type Resolver interface {
	// Enumerate returns the symbols the external system knows about.
	Enumerate() ([]ResolvedSymbol, error)

	// Resolve reports whether the external system can resolve name.
	Resolve(name string) bool
}
