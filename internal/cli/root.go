// Package cli implements the cobra command tree for inputfilter.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/inputfilter/internal/config"
	"github.com/hupe1980/inputfilter/internal/logging"
)

// Process exit codes.
const (
	ExitUsage            = 2
	ExitBuild            = 3
	ExitValidationFailed = 4
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
// Errors are printed to stderr.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return 1
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "inputfilter",
		Short: "Build and run configuration-driven input filters",
		Long: `inputfilter builds named input filters from declarative spec files.

Each input filter is a tree of inputs. An input owns a priority-ordered
filter chain that normalizes its value and a validator chain that decides
whether the value is acceptable. Filters and validators are resolved by
name through plugin registries; input filters may nest other input filters
inline or by name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			logger := logging.SetupWithWriter(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = config.NewContextWithConfigFile(ctx, cfg.ConfigFile)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("logFormat", cfg.LogFormat),
				slog.String("pluginScope", cfg.PluginScope),
				slog.Any("specs", cfg.Specs),
				slog.String("configFile", config.ConfigFileFromContext(ctx)),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .inputfilter.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.String("plugin-scope", "shared", "plugin instance lifetime: shared, per-call")
	pf.StringSlice("spec", nil, "input filter spec files (repeatable, later files win)")
	pf.Bool("metrics", false, "write Prometheus metrics to stderr when the command finishes")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})

	cmd.AddCommand(
		newVersionCommand(),
		newListCommand(),
		newInspectCommand(),
		newValidateCommand(),
		newCheckCommand(),
		newPluginsCommand(),
		newWatchCommand(),
		newCompletionCommand(),
	)

	return cmd
}
