package inputfilter

import (
	"log/slog"

	"github.com/hupe1980/inputfilter/internal/container"
	"github.com/hupe1980/inputfilter/internal/plugin"
)

// Manager is the plugin registry for input filters.
type Manager = plugin.Registry[*InputFilter]

// ManagerName is the registry name and the conventional container service
// name for the input filter manager.
const ManagerName = "InputFilterManager"

// NameInputFilter is the explicit registration that yields an empty input
// filter.
const NameInputFilter = "input_filter"

// NewPluginManager returns an input filter registry whose last resolution
// step is factory, bound to c. A nil factory means a default
// AbstractServiceFactory.
func NewPluginManager(c container.Container, factory *AbstractServiceFactory, opts ...plugin.Option) *Manager {
	if factory == nil {
		factory = NewAbstractServiceFactory()
	}

	m := plugin.NewRegistry[*InputFilter](ManagerName, opts...)
	m.RegisterFactory(NameInputFilter, func(plugin.Options) (*InputFilter, error) {
		return New(), nil
	})
	m.AddAbstractFactory(&boundFactory{factory: factory, container: c})

	return m
}

// boundFactory adapts an AbstractServiceFactory to plugin.AbstractFactory by
// binding it to a container.
type boundFactory struct {
	factory   *AbstractServiceFactory
	container container.Container
}

func (b *boundFactory) CanCreate(name string) bool {
	return b.factory.CanCreate(b.container, name)
}

func (b *boundFactory) Create(name string, opts plugin.Options) (*InputFilter, error) {
	if len(opts) > 0 {
		b.factory.log().Debug("ignoring options for configured input filter",
			slog.String("service", name),
		)
	}

	return b.factory.Create(b.container, name)
}

// Compile-time interface check.
var _ plugin.AbstractFactory[*InputFilter] = (*boundFactory)(nil)
