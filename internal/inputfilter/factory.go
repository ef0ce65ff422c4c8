package inputfilter

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/hupe1980/inputfilter/internal/container"
	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/maputil"
	"github.com/hupe1980/inputfilter/internal/plugin"
	"github.com/hupe1980/inputfilter/internal/spec"
	"github.com/hupe1980/inputfilter/internal/validator"
)

// Conventional container service names and the configuration section read
// by the factory.
const (
	ConfigService             = "config"
	SpecsKey                  = "input_filter_specs"
	FilterManagerService      = filter.ManagerName
	ValidatorManagerService   = validator.ManagerName
	InputFilterManagerService = ManagerName
)

// BuildObserver is notified after every Create call, typically by metrics.
type BuildObserver interface {
	ObserveBuild(service string, duration time.Duration, err error)
}

// FactoryOption configures an AbstractServiceFactory.
type FactoryOption func(*AbstractServiceFactory)

// WithFactoryLogger sets the logger for build diagnostics.
func WithFactoryLogger(logger *slog.Logger) FactoryOption {
	return func(f *AbstractServiceFactory) {
		f.logger = logger
	}
}

// WithBuildObserver installs a build observer.
func WithBuildObserver(o BuildObserver) FactoryOption {
	return func(f *AbstractServiceFactory) {
		f.observer = o
	}
}

// WithDefaultPluginOptions sets the options of the filter and validator
// managers created when the container provides none.
func WithDefaultPluginOptions(opts ...plugin.Option) FactoryOption {
	return func(f *AbstractServiceFactory) {
		f.pluginOpts = opts
	}
}

// AbstractServiceFactory builds input filters from the input_filter_specs
// section of the config container service.
type AbstractServiceFactory struct {
	logger     *slog.Logger
	observer   BuildObserver
	pluginOpts []plugin.Option
}

// NewAbstractServiceFactory creates a factory.
func NewAbstractServiceFactory(opts ...FactoryOption) *AbstractServiceFactory {
	f := &AbstractServiceFactory{}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CanCreate reports whether the configuration in c declares an input filter
// named name. The shape of the declaration is not inspected.
func (f *AbstractServiceFactory) CanCreate(c container.Container, name string) bool {
	_, _, reason := lookupSpec(c, name)
	return reason == ""
}

// Create builds the input filter named name. It fails with
// *ServiceNotCreatableError when CanCreate would report false.
func (f *AbstractServiceFactory) Create(c container.Container, name string) (*InputFilter, error) {
	start := time.Now()

	out, err := f.create(c, name)

	if f.observer != nil {
		f.observer.ObserveBuild(name, time.Since(start), err)
	}

	return out, err
}

func (f *AbstractServiceFactory) create(c container.Container, name string) (*InputFilter, error) {
	specs, _, reason := lookupSpec(c, name)
	if reason != "" {
		return nil, &ServiceNotCreatableError{Name: name, Reason: reason}
	}

	filters, err := managerFromContainer(c, FilterManagerService, func() plugin.Resolver[filter.Filter] {
		return filter.NewManager(f.pluginOpts...)
	})
	if err != nil {
		return nil, err
	}

	validators, err := managerFromContainer(c, ValidatorManagerService, func() plugin.Resolver[validator.Validator] {
		return validator.NewManager(f.pluginOpts...)
	})
	if err != nil {
		return nil, err
	}

	b := &builder{
		container:  c,
		specs:      specs,
		filters:    filters,
		validators: validators,
	}

	out, err := b.build(name)
	if err != nil {
		return nil, err
	}

	f.log().Debug("built input filter",
		slog.String("service", name),
		slog.String("build_id", out.ID()),
		slog.Int("entries", out.Len()),
	)

	return out, nil
}

func (f *AbstractServiceFactory) log() *slog.Logger {
	if f.logger != nil {
		return f.logger
	}

	return slog.Default()
}

// builder builds one requested input filter together with every input
// filter it references. stack holds the names currently being built.
type builder struct {
	container  container.Container
	specs      any
	filters    plugin.Resolver[filter.Filter]
	validators plugin.Resolver[validator.Validator]
	stack      []string
}

func (b *builder) build(name string) (*InputFilter, error) {
	raw, _ := maputil.Lookup(b.specs, name)
	path := field.NewPath(SpecsKey, name)

	s, err := spec.Parse(path, raw)
	if err != nil {
		return nil, err
	}

	b.stack = append(b.stack, name)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	return BuildInputFilter(path, s, Deps{
		Filters:    b.filters,
		Validators: b.validators,
		References: b.reference,
	})
}

// reference builds a referenced input filter. Configured names are built
// here so that every parent owns its copy; other names go to the input
// filter manager service.
func (b *builder) reference(path *field.Path, name string) (*InputFilter, error) {
	if _, ok := maputil.Lookup(b.specs, name); ok {
		if slices.Contains(b.stack, name) {
			cycle := strings.Join(append(slices.Clone(b.stack), name), " -> ")

			return nil, spec.NewInvalidSpecError(field.ErrorList{
				field.Invalid(path.Child(spec.KeyType), name, "reference cycle: "+cycle),
			})
		}

		return b.build(name)
	}

	if b.container.Has(InputFilterManagerService) {
		svc, err := b.container.Get(InputFilterManagerService)
		if err != nil {
			return nil, err
		}

		if m, ok := svc.(plugin.Resolver[*InputFilter]); ok && m.Has(name) {
			return m.Resolve(name, nil)
		}
	}

	return nil, spec.NewInvalidSpecError(field.ErrorList{
		field.NotFound(path.Child(spec.KeyType), name),
	})
}

// lookupSpec returns the input_filter_specs section and the declaration of
// name. reason is empty when name is declared.
func lookupSpec(c container.Container, name string) (specs, declaration any, reason string) {
	if c == nil || !c.Has(ConfigService) {
		return nil, nil, fmt.Sprintf("no %q service", ConfigService)
	}

	cfg, err := c.Get(ConfigService)
	if err != nil {
		return nil, nil, err.Error()
	}

	specs, ok := maputil.Lookup(cfg, SpecsKey)
	if !ok {
		return nil, nil, fmt.Sprintf("configuration has no %q section", SpecsKey)
	}

	declaration, ok = maputil.Lookup(specs, name)
	if !ok {
		return nil, nil, fmt.Sprintf("%q declares no input filter %q", SpecsKey, name)
	}

	return specs, declaration, ""
}

func managerFromContainer[T any](c container.Container, service string, fallback func() plugin.Resolver[T]) (plugin.Resolver[T], error) {
	if !c.Has(service) {
		return fallback(), nil
	}

	svc, err := c.Get(service)
	if err != nil {
		return nil, err
	}

	m, ok := svc.(plugin.Resolver[T])
	if !ok {
		return nil, fmt.Errorf("container service %q is %T, not a plugin resolver", service, svc)
	}

	return m, nil
}
