package cli

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/inputfilter/internal/config"
	"github.com/hupe1980/inputfilter/internal/inputfilter"
	"github.com/hupe1980/inputfilter/internal/logging"
	"github.com/hupe1980/inputfilter/internal/output"
	"github.com/hupe1980/inputfilter/internal/watch"
)

type watchOptions struct {
	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild input filters when spec files change",
		Long: `Watch the configured spec files and rebuild every input filter when one
of them changes.

File changes are debounced to avoid rapid re-runs. Each rebuild reports the
number of input filters and inputs, followed by the input filters that were
added, removed, or changed and a unified diff of their descriptions.
Build errors are reported without stopping the watcher.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *watchOptions) error {
	cfg := config.FromContext(ctx)

	// Fail fast on a configuration that cannot even be loaded.
	env, err := newEnvironment(ctx)
	if err != nil {
		return err
	}
	var mu sync.Mutex

	defer func() {
		mu.Lock()
		defer mu.Unlock()

		env.finish(cmd.ErrOrStderr())
	}()

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		next, err := newEnvironment(fnCtx)
		if err != nil {
			return nil, err
		}

		result, err := renderAll(next)
		if err != nil {
			return nil, err
		}

		mu.Lock()
		env = next
		mu.Unlock()

		return result, nil
	}

	wopts := watch.DefaultOptions()
	wopts.Files = cfg.Specs
	wopts.Debounce = opts.debounce
	wopts.Color = !cfg.NoColor
	wopts.Logger = logging.FromContext(ctx)
	wopts.Out = cmd.ErrOrStderr()

	return watch.Run(ctx, wopts, runFn)
}

// renderAll builds every configured input filter and renders its
// description as YAML.
func renderAll(env *environment) (*watch.RunResult, error) {
	result := &watch.RunResult{
		Renderings:   make(map[string]string),
		Descriptions: make(map[string]map[string]any),
	}

	for _, name := range env.names() {
		f, err := env.build(name)
		if err != nil {
			return nil, err
		}

		desc := output.Describe(name, f)

		data, err := output.SerializeYAML(desc)
		if err != nil {
			return nil, err
		}

		result.Renderings[name] = string(data)
		result.Descriptions[name] = desc
		result.Inputs += countInputs(f)
	}

	return result, nil
}

func countInputs(f *inputfilter.InputFilter) int {
	n := 0

	for _, name := range f.Names() {
		if nested, ok := f.InputFilter(name); ok {
			n += countInputs(nested)
		} else {
			n++
		}
	}

	return n
}
