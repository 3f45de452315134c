package resolver

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	clrhost "github.com/hostbridge/clr-host"
	"github.com/hostbridge/clr-host/errors"
)

const defaultCacheSize = 256

type triple struct {
	assemblyPath string
	typeName     string
	methodName   string
}

func (t triple) flightKey() string {
	return t.assemblyPath + "\x00" + t.typeName + "\x00" + t.methodName
}

// Resolver resolves fully-qualified managed entry points into callable
// entry point values, caching successful resolutions by their
// (assembly path, type name, method name) triple. A cache hit returns
// the identical entry point without re-invoking the loader; concurrent
// first resolutions of the same triple are collapsed into one loader
// call. Failures are not cached.
type Resolver struct {
	load  clrhost.LoadFunc
	cache *lru.Cache[triple, clrhost.EntryPoint]
	group singleflight.Group
}

// Option configures a Resolver.
type Option func(*config)

type config struct {
	cacheSize int
}

// WithCacheSize bounds the resolution cache.
func WithCacheSize(n int) Option {
	return func(c *config) { c.cacheSize = n }
}

// New creates a resolver around a load function.
func New(load clrhost.LoadFunc, opts ...Option) *Resolver {
	cfg := config{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	cache, _ := lru.New[triple, clrhost.EntryPoint](cfg.cacheSize)
	return &Resolver{
		load:  load,
		cache: cache,
	}
}

// Resolve returns the entry point for the triple, loading it through
// the underlying delegate on first use.
func (r *Resolver) Resolve(assemblyPath, typeName, methodName string) (clrhost.EntryPoint, error) {
	if r.load == nil {
		return nil, errors.InvalidInput(errors.PhaseResolve, "resolver has no load delegate")
	}
	if assemblyPath == "" || typeName == "" || methodName == "" {
		return nil, errors.InvalidInput(errors.PhaseResolve, "assembly path, type name and method name are all required")
	}

	key := triple{assemblyPath, typeName, methodName}
	if ep, ok := r.cache.Get(key); ok {
		return ep, nil
	}

	v, err, _ := r.group.Do(key.flightKey(), func() (any, error) {
		if ep, ok := r.cache.Get(key); ok {
			return ep, nil
		}
		ep, err := r.load(assemblyPath, typeName, methodName)
		if err != nil {
			return nil, err
		}
		r.cache.Add(key, ep)
		return ep, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(clrhost.EntryPoint), nil
}

// Len returns the number of cached resolutions.
func (r *Resolver) Len() int {
	return r.cache.Len()
}

// Purge drops every cached resolution. Entry points resolved from a
// closed runtime context must not be used again; purging after a close
// keeps stale pointers from being served.
func (r *Resolver) Purge() {
	r.cache.Purge()
}
