package inputfilter

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/inputfilter/internal/container"
	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/maputil"
	"github.com/hupe1980/inputfilter/internal/plugin"
	"github.com/hupe1980/inputfilter/internal/spec"
	"github.com/hupe1980/inputfilter/internal/validator"
)

type stubFilter struct{}

func (*stubFilter) Filter(v any) (any, error) { return v, nil }

type stubValidator struct{}

func (*stubValidator) IsValid(any) bool   { return true }
func (*stubValidator) Messages() []string { return nil }

type recordingObserver struct {
	mu     sync.Mutex
	builds []string
	errs   []error
}

func (o *recordingObserver) ObserveBuild(service string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.builds = append(o.builds, service)
	o.errs = append(o.errs, err)
}

func configWith(specs map[string]any) map[string]any {
	return map[string]any{SpecsKey: specs}
}

func fooSpec() map[string]any {
	return map[string]any{
		"input": map[string]any{
			"name":       "input",
			"required":   true,
			"filters":    []any{map[string]any{"name": "foo"}},
			"validators": []any{map[string]any{"name": "foo"}},
		},
	}
}

// ---------------------------------------------------------------------------
// CanCreate
// ---------------------------------------------------------------------------

func TestCanCreate(t *testing.T) {
	tests := []struct {
		name   string
		config any
		set    bool
		want   bool
	}{
		{"no config service", nil, false, false},
		{"config without specs section", map[string]any{}, true, false},
		{"specs without service name", configWith(map[string]any{}), true, false},
		{"specs with service name", configWith(map[string]any{"filter": map[string]any{}}), true, true},
		{"any declaration shape", configWith(map[string]any{"filter": "whatever"}), true, true},
		{"config not a map", "config", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := container.New()
			if tt.set {
				c.Set(ConfigService, tt.config)
			}

			f := NewAbstractServiceFactory()
			assert.Equal(t, tt.want, f.CanCreate(c, "filter"))
			assert.Equal(t, tt.want, f.CanCreate(c, "filter"), "idempotent")
		})
	}
}

func TestCanCreate_OrderedConfig(t *testing.T) {
	specs := maputil.NewOrderedMap()
	specs.Set("filter", nil)

	cfg := maputil.NewOrderedMap()
	cfg.Set(SpecsKey, specs)

	c := container.New()
	c.Set(ConfigService, cfg)

	assert.True(t, NewAbstractServiceFactory().CanCreate(c, "filter"))
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_NotCreatable(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{}))

	_, err := NewAbstractServiceFactory().Create(c, "filter")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceNotCreatable)

	var nc *ServiceNotCreatableError
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, "filter", nc.Name)
}

func TestCreate_EmptySpecGivesEmptyInputFilter(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{"filter": map[string]any{}}))

	f, err := NewAbstractServiceFactory().Create(c, "filter")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Zero(t, f.Len())
	assert.NotEmpty(t, f.ID())
}

func TestCreate_UsesConfiguredManagers(t *testing.T) {
	fooFilter := &stubFilter{}
	filters := plugin.NewRegistry[filter.Filter](filter.ManagerName)
	filters.RegisterInstance("foo", fooFilter)

	fooValidator := &stubValidator{}
	validators := plugin.NewRegistry[validator.Validator](validator.ManagerName)
	validators.RegisterInstance("foo", fooValidator)

	c := container.New()
	c.Set(FilterManagerService, filters)
	c.Set(ValidatorManagerService, validators)
	c.Set(ConfigService, configWith(map[string]any{"filter": fooSpec()}))

	f, err := NewAbstractServiceFactory().Create(c, "filter")
	require.NoError(t, err)
	require.True(t, f.Has("input"))

	in, ok := f.Input("input")
	require.True(t, ok)
	assert.True(t, in.Required())

	filterChain := in.FilterChain()
	assert.Same(t, filters, filterChain.Registry())
	assert.Equal(t, 1, filterChain.Len())

	p, err := filterChain.Plugin("foo", nil)
	require.NoError(t, err)
	assert.Same(t, fooFilter, p)
	assert.Equal(t, 1, filterChain.Len())

	validatorChain := in.ValidatorChain()
	assert.Same(t, validators, validatorChain.Registry())
	assert.Equal(t, 1, validatorChain.Len())

	v, err := validatorChain.Plugin("foo", nil)
	require.NoError(t, err)
	assert.Same(t, fooValidator, v)
	assert.Equal(t, 1, validatorChain.Len())
}

func TestCreate_FallsBackToDefaultManagers(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"filter": map[string]any{
			"email": map[string]any{
				"filters":    []any{"string_trim"},
				"validators": []any{"email_address"},
			},
		},
	}))

	f, err := NewAbstractServiceFactory().Create(c, "filter")
	require.NoError(t, err)

	in, ok := f.Input("email")
	require.True(t, ok)

	reg, ok := in.FilterChain().Registry().(*filter.Manager)
	require.True(t, ok)
	assert.Equal(t, filter.ManagerName, reg.Name())
}

func TestCreate_WrongManagerType(t *testing.T) {
	c := container.New()
	c.Set(FilterManagerService, "not a manager")
	c.Set(ConfigService, configWith(map[string]any{"filter": map[string]any{}}))

	_, err := NewAbstractServiceFactory().Create(c, "filter")
	assert.ErrorContains(t, err, "not a plugin resolver")
}

func TestCreate_UnknownPluginFailsWholeBuild(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"filter": map[string]any{
			"a": map[string]any{"filters": []any{"string_trim"}},
			"b": map[string]any{"validators": []any{"nope"}},
		},
	}))

	f, err := NewAbstractServiceFactory().Create(c, "filter")
	require.Error(t, err)
	assert.Nil(t, f)
	assert.ErrorIs(t, err, plugin.ErrPluginNotFound)
	assert.Contains(t, err.Error(), "input_filter_specs.filter.b")
}

func TestCreate_InvalidSpec(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"filter": map[string]any{"a": map[string]any{"name": 5}},
	}))

	_, err := NewAbstractServiceFactory().Create(c, "filter")
	assert.ErrorIs(t, err, spec.ErrInvalidSpec)
	assert.Contains(t, err.Error(), "input_filter_specs.filter.a.name")
}

func TestCreate_DeclarationOrder(t *testing.T) {
	fields := maputil.NewOrderedMap()
	fields.Set("zeta", nil)
	fields.Set("alpha", nil)
	fields.Set("mid", nil)

	specs := maputil.NewOrderedMap()
	specs.Set("filter", fields)

	c := container.New()
	c.Set(ConfigService, map[string]any{SpecsKey: specs})

	f, err := NewAbstractServiceFactory().Create(c, "filter")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, f.Names())
}

func TestCreate_Deterministic(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"filter": map[string]any{"c": nil, "a": nil, "b": nil},
	}))

	factory := NewAbstractServiceFactory()

	first, err := factory.Create(c, "filter")
	require.NoError(t, err)

	second, err := factory.Create(c, "filter")
	require.NoError(t, err)

	assert.Equal(t, first.Names(), second.Names())
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestCreate_ObserverSeesBuilds(t *testing.T) {
	obs := &recordingObserver{}

	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{"ok": nil}))

	factory := NewAbstractServiceFactory(WithBuildObserver(obs))

	_, err := factory.Create(c, "ok")
	require.NoError(t, err)

	_, err = factory.Create(c, "missing")
	require.Error(t, err)

	assert.Equal(t, []string{"ok", "missing"}, obs.builds)
	assert.NoError(t, obs.errs[0])
	assert.ErrorIs(t, obs.errs[1], ErrServiceNotCreatable)
}

// ---------------------------------------------------------------------------
// Nesting
// ---------------------------------------------------------------------------

func TestCreate_InlineNested(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"signup": map[string]any{
			"address": map[string]any{
				"type":         "input_filter",
				"input_filter": map[string]any{"street": map[string]any{"required": true}},
			},
		},
	}))

	f, err := NewAbstractServiceFactory().Create(c, "signup")
	require.NoError(t, err)

	nested, ok := f.InputFilter("address")
	require.True(t, ok)

	street, ok := nested.Input("street")
	require.True(t, ok)
	assert.True(t, street.Required())

	_, isInput := f.Input("address")
	assert.False(t, isInput)
}

func TestCreate_ReferenceBuildsOwnedCopies(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"address": map[string]any{"street": nil},
		"order": map[string]any{
			"billing":  map[string]any{"type": "address"},
			"shipping": map[string]any{"type": "address"},
		},
	}))

	f, err := NewAbstractServiceFactory().Create(c, "order")
	require.NoError(t, err)

	billing, ok := f.InputFilter("billing")
	require.True(t, ok)

	shipping, ok := f.InputFilter("shipping")
	require.True(t, ok)

	assert.NotSame(t, billing, shipping)
	assert.Equal(t, []string{"street"}, billing.Names())
}

func TestCreate_ReferenceCycle(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"a": map[string]any{"b": map[string]any{"type": "b"}},
		"b": map[string]any{"a": map[string]any{"type": "a"}},
	}))

	_, err := NewAbstractServiceFactory().Create(c, "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, spec.ErrInvalidSpec)
	assert.Contains(t, err.Error(), "reference cycle: a -> b -> a")
}

func TestCreate_SelfReference(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"a": map[string]any{"self": map[string]any{"type": "a"}},
	}))

	_, err := NewAbstractServiceFactory().Create(c, "a")
	assert.ErrorIs(t, err, spec.ErrInvalidSpec)
}

func TestCreate_ReferenceThroughManagerService(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"order": map[string]any{"meta": map[string]any{"type": "external"}},
	}))

	external := New()
	external.Add("id", NewInput("id"))

	m := NewPluginManager(c, nil)
	m.RegisterInstance("external", external)
	c.Set(InputFilterManagerService, m)

	f, err := NewAbstractServiceFactory().Create(c, "order")
	require.NoError(t, err)

	meta, ok := f.InputFilter("meta")
	require.True(t, ok)
	assert.Same(t, external, meta)
}

func TestCreate_UnknownReference(t *testing.T) {
	c := container.New()
	c.Set(ConfigService, configWith(map[string]any{
		"order": map[string]any{"meta": map[string]any{"type": "nowhere"}},
	}))

	_, err := NewAbstractServiceFactory().Create(c, "order")
	require.Error(t, err)
	assert.True(t, errors.Is(err, spec.ErrInvalidSpec))
	assert.Contains(t, err.Error(), "input_filter_specs.order.meta.type")
}
