// Package inputfilter provides a public Go API for building input filters
// from declarative spec documents.
//
// Basic usage:
//
//	eng, err := inputfilter.Load(inputfilter.WithSpecFiles("specs.yaml"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	values, messages, err := eng.Validate("signup", data)
//
// With custom plugins:
//
//	eng, err := inputfilter.Load(
//	    inputfilter.WithSpecYAML("inline", specYAML),
//	    inputfilter.WithFilter("slug", newSlugFilter),
//	    inputfilter.WithScope(inputfilter.ScopePerCall),
//	)
package inputfilter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/inputfilter/internal/config"
	"github.com/hupe1980/inputfilter/internal/container"
	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/inputfilter"
	"github.com/hupe1980/inputfilter/internal/maputil"
	"github.com/hupe1980/inputfilter/internal/plugin"
	"github.com/hupe1980/inputfilter/internal/spec"
	"github.com/hupe1980/inputfilter/internal/validator"
)

// Re-exported types.
type (
	// InputFilter is a built input filter.
	InputFilter = inputfilter.InputFilter
	// Input is a leaf entry of an InputFilter.
	Input = inputfilter.Input
	// Filter transforms a value.
	Filter = filter.Filter
	// Validator checks a value.
	Validator = validator.Validator
	// Options are plugin options from a spec document.
	Options = plugin.Options
	// Scope is the instance lifetime policy of the plugin registries.
	Scope = plugin.Scope
)

// Plugin scopes.
const (
	ScopeShared  = plugin.ScopeShared
	ScopePerCall = plugin.ScopePerCall
)

// Sentinel errors.
var (
	ErrInvalidSpec         = spec.ErrInvalidSpec
	ErrPluginNotFound      = plugin.ErrPluginNotFound
	ErrServiceNotCreatable = inputfilter.ErrServiceNotCreatable
)

// Option configures Load. Use the With* functions to create Options.
type Option func(*options)

type source struct {
	name string
	data []byte
}

type options struct {
	files      []string
	sources    []source
	logger     *slog.Logger
	scope      Scope
	filters    map[string]plugin.Factory[Filter]
	validators map[string]plugin.Factory[Validator]
}

// WithSpecFiles appends spec files. Later files win.
func WithSpecFiles(paths ...string) Option {
	return func(o *options) { o.files = append(o.files, paths...) }
}

// WithSpecYAML appends an in-memory spec stream. name is used in errors.
// In-memory streams are merged after all files.
func WithSpecYAML(name string, data []byte) Option {
	return func(o *options) { o.sources = append(o.sources, source{name: name, data: data}) }
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// WithScope sets the scope of the input filter manager used by Get. The
// default is ScopeShared. Filter and validator plugins are always created per
// call so that built input filters never share plugin state.
func WithScope(s Scope) Option { return func(o *options) { o.scope = s } }

// WithFilter registers a custom filter factory.
func WithFilter(name string, factory func(Options) (Filter, error)) Option {
	return func(o *options) { o.filters[name] = factory }
}

// WithValidator registers a custom validator factory.
func WithValidator(name string, factory func(Options) (Validator, error)) Option {
	return func(o *options) { o.validators[name] = factory }
}

// Engine holds the merged configuration and the plugin managers.
type Engine struct {
	services *container.Services
	factory  *inputfilter.AbstractServiceFactory
	manager  *inputfilter.Manager
	names    []string
}

// Load reads the spec documents and wires the managers.
func Load(opts ...Option) (*Engine, error) {
	o := &options{
		scope:      ScopeShared,
		filters:    make(map[string]plugin.Factory[Filter]),
		validators: make(map[string]plugin.Factory[Validator]),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	docs, err := config.LoadSpecFiles(o.files...)
	if err != nil {
		return nil, err
	}

	for _, s := range o.sources {
		more, err := config.ParseSpecDocuments(s.name, s.data)
		if err != nil {
			return nil, err
		}

		docs = append(docs, more...)
	}

	if len(docs) == 0 {
		return nil, errors.New("no spec documents given")
	}

	pluginOpts := []plugin.Option{plugin.WithScope(ScopePerCall), plugin.WithLogger(o.logger)}

	filters := filter.NewManager(pluginOpts...)
	for name, f := range o.filters {
		filters.RegisterFactory(name, f)
	}

	validators := validator.NewManager(pluginOpts...)
	for name, f := range o.validators {
		validators.RegisterFactory(name, f)
	}

	config.MergeAliases(docs...).Apply(filters, validators)

	registry := config.BuildRegistry(o.logger, docs...)

	e := &Engine{
		services: container.New(),
		factory:  inputfilter.NewAbstractServiceFactory(inputfilter.WithFactoryLogger(o.logger)),
	}

	e.services.Set(inputfilter.ConfigService, registry)
	e.services.Set(inputfilter.FilterManagerService, filters)
	e.services.Set(inputfilter.ValidatorManagerService, validators)

	e.manager = inputfilter.NewPluginManager(e.services, e.factory,
		plugin.WithScope(o.scope), plugin.WithLogger(o.logger))
	e.services.Set(inputfilter.InputFilterManagerService, e.manager)

	if specs, ok := maputil.Lookup(registry, inputfilter.SpecsKey); ok {
		if m, ok := specs.(*maputil.OrderedMap); ok {
			e.names = m.Keys()
		}
	}

	return e, nil
}

// Names returns the configured input filter names in declaration order.
func (e *Engine) Names() []string { return append([]string(nil), e.names...) }

// Has reports whether name can be built.
func (e *Engine) Has(name string) bool { return e.manager.Has(name) }

// Get returns the input filter named name through the input filter manager.
// With ScopeShared repeated calls return the same instance, which must not
// be validated from several goroutines at once.
func (e *Engine) Get(name string) (*InputFilter, error) {
	return e.manager.Resolve(name, nil)
}

// Build returns a freshly built input filter, independent of any cache.
func (e *Engine) Build(name string) (*InputFilter, error) {
	return e.factory.Create(e.services, name)
}

// Validate builds a fresh copy of the named input filter and runs data
// through it. It returns the filtered values when data is valid and the
// validation messages otherwise. Validate is safe for concurrent use.
func (e *Engine) Validate(name string, data map[string]any) (values, messages map[string]any, err error) {
	f, err := e.Build(name)
	if err != nil {
		return nil, nil, err
	}

	f.SetData(data)

	if !f.IsValid() {
		return nil, f.Messages(), nil
	}

	values, err = f.Values()
	if err != nil {
		return nil, nil, fmt.Errorf("filtering %q: %w", name, err)
	}

	return values, nil, nil
}
