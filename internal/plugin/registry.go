package plugin

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Options are per-invocation construction options handed to a factory.
type Options map[string]any

// Factory builds a plugin instance from construction options. opts is nil
// when the caller supplied none.
type Factory[T any] func(opts Options) (T, error)

// Resolver is the lookup contract shared by registries and their parents.
type Resolver[T any] interface {
	// Has reports whether name can be resolved. It never mutates state.
	Has(name string) bool

	// Resolve returns the plugin registered under name.
	Resolve(name string, opts Options) (T, error)
}

// AbstractFactory is a fallback producer consulted only when neither the
// registry nor its parent knows a name.
type AbstractFactory[T any] interface {
	// CanCreate reports whether the factory can build name. It must be pure.
	CanCreate(name string) bool

	// Create builds name.
	Create(name string, opts Options) (T, error)
}

// Source identifies which resolution step produced a plugin.
type Source string

// Resolution sources reported to an Observer.
const (
	SourceCache    Source = "cache"
	SourceLocal    Source = "local"
	SourceParent   Source = "parent"
	SourceAbstract Source = "abstract"
	SourceNone     Source = "none"
)

// Observer receives one notification per Resolve call.
type Observer interface {
	ObserveResolution(registry, name string, source Source, err error)
}

type settings struct {
	scope    Scope
	logger   *slog.Logger
	observer Observer
}

// Option configures a Registry.
type Option func(*settings)

// WithScope sets the instance lifetime policy (default ScopeShared).
func WithScope(scope Scope) Option {
	return func(s *settings) {
		s.scope = scope
	}
}

// WithLogger sets the logger used for debug output. When unset the
// process-wide slog default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithObserver installs a resolution observer, typically metrics.
func WithObserver(o Observer) Option {
	return func(s *settings) {
		s.observer = o
	}
}

// Registry resolves names to plugin instances of type T.
//
// Resolution order: cached instance, locally registered instance or factory,
// parent resolver, abstract factories in registration order. A name that
// survives all steps fails with *PluginNotFoundError. Names are matched
// case-insensitively and ignore '-', '_', '\' and spaces.
//
// Registry is safe for concurrent use. For a shared scope, building an
// instance is a single critical section per name.
type Registry[T any] struct {
	name string
	settings

	mu        sync.RWMutex
	factories map[string]Factory[T]
	instances map[string]T
	aliases   map[string]string
	display   map[string]string
	cache     map[string]T
	gens      map[string]uint64
	abstract  []AbstractFactory[T]
	parent    Resolver[T]

	group singleflight.Group
}

// NewRegistry creates an empty registry. name is used in errors, logs and
// metrics.
func NewRegistry[T any](name string, opts ...Option) *Registry[T] {
	r := &Registry[T]{
		name:      name,
		factories: make(map[string]Factory[T]),
		instances: make(map[string]T),
		aliases:   make(map[string]string),
		display:   make(map[string]string),
		cache:     make(map[string]T),
		gens:      make(map[string]uint64),
	}

	for _, opt := range opts {
		opt(&r.settings)
	}

	return r
}

// Name returns the registry name.
func (r *Registry[T]) Name() string { return r.name }

// Scope returns the instance lifetime policy.
func (r *Registry[T]) Scope() Scope { return r.scope }

// SetParent sets the resolver consulted for names that are not registered
// locally. Local registrations always shadow the parent.
func (r *Registry[T]) SetParent(parent Resolver[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parent = parent
}

// Parent returns the parent resolver, or nil.
func (r *Registry[T]) Parent() Resolver[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.parent
}

// AddAbstractFactory appends a fallback producer. Abstract factories are
// consulted in the order they were added.
func (r *Registry[T]) AddAbstractFactory(f AbstractFactory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.abstract = append(r.abstract, f)
}

// RegisterFactory registers a factory under name. An existing registration
// for the same name is overwritten and its cached instance dropped.
func (r *Registry[T]) RegisterFactory(name string, factory Factory[T]) {
	key := normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked(name, key)
	r.factories[key] = factory
	r.display[key] = name
}

// RegisterInstance registers a fixed instance under name. The instance is
// returned as-is regardless of scope and options. An existing registration
// for the same name is overwritten.
func (r *Registry[T]) RegisterInstance(name string, instance T) {
	key := normalize(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked(name, key)
	r.instances[key] = instance
	r.display[key] = name
}

// RegisterAlias makes alias resolve to target. Aliases may chain.
func (r *Registry[T]) RegisterAlias(alias, target string) {
	key := normalize(alias)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked(alias, key)
	r.aliases[key] = target
	r.display[key] = alias
}

func (r *Registry[T]) clearLocked(name, key string) {
	_, hasFactory := r.factories[key]
	_, hasInstance := r.instances[key]
	_, hasAlias := r.aliases[key]

	if hasFactory || hasInstance || hasAlias {
		r.log().Debug("overwriting plugin registration",
			slog.String("registry", r.name),
			slog.String("name", name),
		)
	}

	delete(r.factories, key)
	delete(r.instances, key)
	delete(r.aliases, key)
	delete(r.cache, key)

	// An in-flight construction for key must neither be joined nor cached.
	r.gens[key]++
	r.group.Forget(key)
}

// Has reports whether name is registered locally, known to the parent, or
// creatable by an abstract factory.
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	key, lookup := r.resolveKeyLocked(name)
	local := r.registeredLocked(key)
	parent := r.parent
	abstract := slices.Clone(r.abstract)
	r.mu.RUnlock()

	if local {
		return true
	}

	if parent != nil && parent.Has(lookup) {
		return true
	}

	for _, f := range abstract {
		if f.CanCreate(lookup) {
			return true
		}
	}

	return false
}

// Resolve returns the plugin for name. With a shared scope and no options
// the instance is cached and later calls return the identical value.
func (r *Registry[T]) Resolve(name string, opts Options) (T, error) {
	r.mu.RLock()
	key, lookup := r.resolveKeyLocked(name)
	r.mu.RUnlock()

	if r.scope != ScopeShared || len(opts) > 0 {
		v, src, _, err := r.create(lookup, key, opts)
		r.observe(name, src, err)

		return v, err
	}

	if v, ok := r.cached(key); ok {
		r.observe(name, SourceCache, nil)
		return v, nil
	}

	res, err, _ := r.group.Do(key, func() (any, error) {
		if v, ok := r.cached(key); ok {
			return resolution[T]{value: v, source: SourceCache}, nil
		}

		r.mu.RLock()
		gen := r.gens[key]
		r.mu.RUnlock()

		v, src, cacheable, err := r.create(lookup, key, nil)
		if err != nil {
			return resolution[T]{source: src}, err
		}

		if cacheable {
			r.mu.Lock()
			if r.gens[key] == gen {
				r.cache[key] = v
			}
			r.mu.Unlock()
		}

		return resolution[T]{value: v, source: src}, nil
	})

	out, _ := res.(resolution[T])
	r.observe(name, out.source, err)

	return out.value, err
}

type resolution[T any] struct {
	value  T
	source Source
}

func (r *Registry[T]) cached(key string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.cache[key]

	return v, ok
}

// create runs the uncached resolution steps. The returned bool reports
// whether the value may be cached by this registry.
func (r *Registry[T]) create(name, key string, opts Options) (T, Source, bool, error) {
	var zero T

	r.mu.RLock()
	instance, hasInstance := r.instances[key]
	factory, hasFactory := r.factories[key]
	parent := r.parent
	abstract := slices.Clone(r.abstract)
	r.mu.RUnlock()

	if hasInstance {
		return instance, SourceLocal, false, nil
	}

	if hasFactory {
		v, err := factory(opts)
		if err != nil {
			return zero, SourceLocal, false, fmt.Errorf("creating %q in %s: %w", name, r.name, err)
		}

		return v, SourceLocal, true, nil
	}

	if parent != nil && parent.Has(name) {
		v, err := parent.Resolve(name, opts)

		return v, SourceParent, false, err
	}

	for _, f := range abstract {
		if !f.CanCreate(name) {
			continue
		}

		v, err := f.Create(name, opts)
		if err != nil {
			return zero, SourceAbstract, false, fmt.Errorf("creating %q in %s: %w", name, r.name, err)
		}

		r.log().Debug("plugin created by abstract factory",
			slog.String("registry", r.name),
			slog.String("name", name),
		)

		return v, SourceAbstract, true, nil
	}

	return zero, SourceNone, false, &PluginNotFoundError{Name: name, Registry: r.name}
}

// Names returns the sorted names of all local registrations, aliases
// included, in the spelling they were registered with.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.display))
	for _, n := range r.display {
		names = append(names, n)
	}

	sort.Strings(names)

	return names
}

func (r *Registry[T]) registeredLocked(key string) bool {
	if _, ok := r.instances[key]; ok {
		return true
	}

	_, ok := r.factories[key]

	return ok
}

// resolveKeyLocked follows aliases and returns the canonical key together
// with the name to pass on to the parent and abstract factories.
func (r *Registry[T]) resolveKeyLocked(name string) (key, lookup string) {
	key, lookup = normalize(name), name

	for range len(r.aliases) {
		if r.registeredLocked(key) {
			break
		}

		target, ok := r.aliases[key]
		if !ok {
			break
		}

		key, lookup = normalize(target), target
	}

	return key, lookup
}

func (r *Registry[T]) observe(name string, source Source, err error) {
	if err != nil {
		r.log().Debug("plugin resolution failed",
			slog.String("registry", r.name),
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
	}

	if r.observer != nil {
		r.observer.ObserveResolution(r.name, name, source, err)
	}
}

func (r *Registry[T]) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}

	return slog.Default()
}

var nameReplacer = strings.NewReplacer("-", "", "_", "", " ", "", `\`, "")

// normalize returns the canonical lookup key for a plugin name.
func normalize(name string) string {
	return strings.ToLower(nameReplacer.Replace(name))
}

// Compile-time interface check.
var _ Resolver[any] = (*Registry[any])(nil)
