package engine

import (
	"fmt"

	"github.com/vociferous/vociferous/internal/config"
)

// Registry is a whitelist of engine constructors keyed by kind: a
// kind-to-constructor map with a Lookup/Names surface rather than a global
// init-time side table.
type Registry struct {
	constructors map[Kind]Constructor
}

// NewRegistry creates a registry from a map of engine constructors.
func NewRegistry(constructors map[Kind]Constructor) *Registry {
	return &Registry{constructors: constructors}
}

// Lookup returns the constructor for a kind, or false if unregistered.
func (r *Registry) Lookup(kind Kind) (Constructor, bool) {
	c, ok := r.constructors[kind]
	return c, ok
}

// Names returns all registered engine kinds.
func (r *Registry) Names() []Kind {
	names := make([]Kind, 0, len(r.constructors))
	for k := range r.constructors {
		names = append(names, k)
	}
	return names
}

// Build looks up and constructs an engine for kind, or returns an error
// naming the unregistered kind and the kinds that are available.
func (r *Registry) Build(cfg Config, kind Kind) (Engine, error) {
	ctor, ok := r.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("engine: no constructor registered for kind %q (have: %v)", kind, r.Names())
	}
	return ctor(cfg)
}

// Default returns the registry used when no explicit registry is supplied:
// the local in-process engine for every EngineKind the config package
// recognizes.
func Default() *Registry {
	return NewRegistry(map[Kind]Constructor{
		config.EngineWhisperTurbo: NewLocalEngine,
		config.EngineCanaryQwen:   NewLocalEngine,
	})
}
