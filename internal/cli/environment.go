package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/hupe1980/inputfilter/internal/config"
	"github.com/hupe1980/inputfilter/internal/container"
	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/inputfilter"
	"github.com/hupe1980/inputfilter/internal/logging"
	"github.com/hupe1980/inputfilter/internal/maputil"
	"github.com/hupe1980/inputfilter/internal/metrics"
	"github.com/hupe1980/inputfilter/internal/plugin"
	"github.com/hupe1980/inputfilter/internal/validator"
)

// environment is the service container of one command run: the merged
// spec configuration, the plugin managers, and the input filter manager
// bound to them.
type environment struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics

	docs     []*config.SpecDocument
	services *container.Services

	filters      *filter.Manager
	validators   *validator.Manager
	inputFilters *inputfilter.Manager
}

// newEnvironment loads the configured spec files and wires the container.
// Unreadable spec files are usage errors; malformed ones are build errors.
func newEnvironment(ctx context.Context) (*environment, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	if len(cfg.Specs) == 0 {
		return nil, &ExitError{
			Code: ExitUsage,
			Err:  errors.New("no spec files configured (use --spec or the specs config key)"),
		}
	}

	docs, err := config.LoadSpecFiles(cfg.Specs...)
	if err != nil {
		code := ExitBuild
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			code = ExitUsage
		}

		return nil, &ExitError{Code: code, Err: err}
	}

	env := &environment{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		docs:    docs,
	}

	env.wire()

	return env, nil
}

func (e *environment) wire() {
	pluginOpts := func(component string) []plugin.Option {
		return []plugin.Option{
			plugin.WithScope(e.cfg.Scope()),
			plugin.WithLogger(logging.Component(e.logger, component)),
			plugin.WithObserver(e.metrics),
		}
	}

	e.filters = filter.NewManager(pluginOpts(filter.ManagerName)...)
	e.validators = validator.NewManager(pluginOpts(validator.ManagerName)...)

	aliases := config.MergeAliases(e.docs...)
	if !aliases.IsEmpty() {
		aliases.Apply(e.filters, e.validators)
	}

	e.services = container.New()
	e.services.Set(inputfilter.ConfigService, config.BuildRegistry(e.logger, e.docs...))
	e.services.Set(inputfilter.FilterManagerService, e.filters)
	e.services.Set(inputfilter.ValidatorManagerService, e.validators)

	factory := inputfilter.NewAbstractServiceFactory(
		inputfilter.WithFactoryLogger(logging.Component(e.logger, "AbstractServiceFactory")),
		inputfilter.WithBuildObserver(e.metrics),
	)

	e.inputFilters = inputfilter.NewPluginManager(e.services, factory, pluginOpts(inputfilter.ManagerName)...)
	e.services.Set(inputfilter.InputFilterManagerService, e.inputFilters)
}

// names returns the configured input filter names in declaration order.
func (e *environment) names() []string {
	cfg, _ := e.services.Get(inputfilter.ConfigService)

	specs, _ := maputil.Lookup(cfg, inputfilter.SpecsKey)
	if m, ok := specs.(*maputil.OrderedMap); ok {
		return m.Keys()
	}

	return nil
}

// build resolves name through the input filter manager. Unknown names are
// usage errors; everything else that fails is a build error.
func (e *environment) build(name string) (*inputfilter.InputFilter, error) {
	if !e.inputFilters.Has(name) {
		return nil, &ExitError{
			Code: ExitUsage,
			Err:  fmt.Errorf("unknown input filter %q (configured: %s)", name, strings.Join(e.names(), ", ")),
		}
	}

	f, err := e.inputFilters.Resolve(name, nil)
	if err != nil {
		if plugin.IsNotFound(err) {
			e.logger.Info("unknown plugin; run 'inputfilter plugins' to list the registered names",
				slog.String("inputFilter", name))
		}

		return nil, &ExitError{Code: ExitBuild, Err: err}
	}

	return f, nil
}

// finish writes the collected metrics to w when enabled.
func (e *environment) finish(w io.Writer) {
	if e == nil || !e.cfg.Metrics {
		return
	}

	if err := e.metrics.WriteText(w); err != nil {
		e.logger.Warn("writing metrics failed", slog.String("error", err.Error()))
	}
}
