package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hupe1980/inputfilter/internal/output"
)

type inspectOptions struct {
	format   string
	file     string
	fileMode string
}

func newInspectCommand() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <name>",
		Short: "Describe a built input filter",
		Long: `Build the named input filter and print its structure: every input with
its flags and its filter and validator chains in execution order, and
nested input filters recursively.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "output", "o", output.FormatYAML, "output format: yaml, json, toml")
	f.StringVar(&opts.file, "file", "", "write to this file instead of stdout")
	f.StringVar(&opts.fileMode, "file-mode", "0644", "octal permissions of the --file output")

	return cmd
}

func runInspect(cmd *cobra.Command, name string, opts *inspectOptions) error {
	formats := output.DefaultRegistry()

	enc, err := formats.Encoder(opts.format)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	mode, err := strconv.ParseUint(opts.fileMode, 8, 32)
	if err != nil || mode > 0o777 {
		return &ExitError{Code: ExitUsage, Err: fmt.Errorf("invalid --file-mode %q: must be octal permissions such as 0600", opts.fileMode)}
	}

	env, err := newEnvironment(cmd.Context())
	if err != nil {
		return err
	}
	defer env.finish(cmd.ErrOrStderr())

	f, err := env.build(name)
	if err != nil {
		return err
	}

	data, err := enc(output.Describe(name, f))
	if err != nil {
		return err
	}

	w := output.NewWriter(opts.file, cmd.OutOrStdout(),
		output.WithLogger(env.logger),
		output.WithPermissions(os.FileMode(mode)),
	)

	return w.Write(data)
}
