package bridge

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hostbridge/clr-host/codec"
	"github.com/hostbridge/clr-host/errors"
)

// Ctor constructs an instance from decoded constructor arguments. An
// empty argument list default-constructs.
type Ctor func(args []codec.Value) (any, error)

// Method invokes one named method on an instance. hasResult reports
// whether result carries a value (non-void method).
type Method func(recv any, args []codec.Value) (result codec.Value, hasResult bool, err error)

// TypeDescriptor is the dispatch table for one bridged type: a
// constructor plus named methods. It replaces per-type proxy subclassing;
// binding generators can emit these tables from managed type metadata.
type TypeDescriptor struct {
	Assembly string
	Name     string
	New      Ctor
	Methods  map[string]Method
}

// Registry maps (assembly, type name) pairs to dispatch tables. Lookups
// by assembly-qualified name string ("Namespace.Type, Assembly") are
// cached; descriptors never change once registered, so cached entries
// stay valid for the process lifetime. The types map is the
// authoritative store and is unbounded; the qualified-name cache is a
// bounded LRU whose evictions only cost a re-parse of the name.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*TypeDescriptor

	qualified *lru.Cache[string, *TypeDescriptor]
}

const qualifiedCacheSize = 256

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	cache, _ := lru.New[string, *TypeDescriptor](qualifiedCacheSize)
	return &Registry{
		types:     make(map[string]*TypeDescriptor),
		qualified: cache,
	}
}

// Register adds a dispatch table. Registering the same (assembly, type)
// pair twice is an error; descriptors are immutable once registered.
func (r *Registry) Register(desc *TypeDescriptor) error {
	if desc.Name == "" {
		return errors.InvalidInput(errors.PhaseBridge, "type name cannot be empty")
	}
	if desc.New == nil {
		return errors.InvalidInput(errors.PhaseBridge, "type "+desc.Name+" has no constructor")
	}

	key := typeKey(desc.Assembly, desc.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[key]; exists {
		return errors.InvalidInput(errors.PhaseBridge, "type "+key+" already registered")
	}
	r.types[key] = desc
	return nil
}

// Lookup finds the descriptor for an (assembly, type name) pair. The
// type name may be assembly-qualified, in which case the embedded
// assembly name wins over the assembly argument.
func (r *Registry) Lookup(assembly, typeName string) (*TypeDescriptor, bool) {
	if name, asm, ok := splitQualified(typeName); ok {
		return r.lookupQualified(typeName, asm, name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.types[typeKey(assembly, typeName)]
	return desc, ok
}

// Types returns the registered descriptors in no particular order.
func (r *Registry) Types() []*TypeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TypeDescriptor, 0, len(r.types))
	for _, d := range r.types {
		out = append(out, d)
	}
	return out
}

func (r *Registry) lookupQualified(raw, assembly, name string) (*TypeDescriptor, bool) {
	if desc, ok := r.qualified.Get(raw); ok {
		return desc, true
	}

	r.mu.RLock()
	desc, ok := r.types[typeKey(assembly, name)]
	r.mu.RUnlock()
	if ok {
		r.qualified.Add(raw, desc)
	}
	return desc, ok
}

func typeKey(assembly, name string) string {
	return name + ", " + assembly
}

// splitQualified splits an assembly-qualified type name of the form
// "Namespace.TypeName, AssemblyName". The comma-separated format is
// fixed by the managed ecosystem and must be matched exactly.
func splitQualified(s string) (name, assembly string, ok bool) {
	name, assembly, ok = strings.Cut(s, ",")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(name), strings.TrimSpace(assembly), true
}
