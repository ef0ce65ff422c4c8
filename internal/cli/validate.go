package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/inputfilter/internal/output"
	"github.com/hupe1980/inputfilter/internal/yamlutil"
)

type validateOptions struct {
	format string
	strict bool
}

func newValidateCommand() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <name> <data-file|->",
		Short: "Run data through an input filter",
		Long: `Build the named input filter, feed it the YAML or JSON mapping read from
data-file (or stdin for "-"), and validate it.

On success the filtered values are printed. On failure the validation
messages are printed and the command exits with code 4. Keys of the data
that the input filter does not declare are reported as warnings; with
--strict they fail the run as well.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], args[1], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "output", "o", output.FormatYAML, "output format: yaml, json, toml")
	f.BoolVar(&opts.strict, "strict", false, "fail on undeclared data keys")

	return cmd
}

func runValidate(cmd *cobra.Command, name, dataPath string, opts *validateOptions) error {
	formats := output.DefaultRegistry()

	enc, err := formats.Encoder(opts.format)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	raw, err := readData(cmd, dataPath)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	data, err := yamlutil.DecodeMap(raw)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: fmt.Errorf("parsing data %s: %w", dataPath, err)}
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

	f.SetData(data)
	valid := f.IsValid()

	result := output.Report(f, data)
	if len(result.Findings) > 0 {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), output.FormatValidationResult(result))
	}

	if !valid {
		out, encErr := enc(f.Messages())
		if encErr != nil {
			return encErr
		}

		_, _ = cmd.OutOrStdout().Write(out)

		return &ExitError{
			Code: ExitValidationFailed,
			Err:  fmt.Errorf("input filter %q: %d invalid input(s)", name, len(f.InvalidInputs())),
		}
	}

	if opts.strict && result.HasWarnings() {
		return &ExitError{
			Code: ExitValidationFailed,
			Err:  fmt.Errorf("input filter %q: %d undeclared key(s) (strict mode)", name, len(result.Warnings())),
		}
	}

	values, err := f.Values()
	if err != nil {
		return &ExitError{Code: ExitValidationFailed, Err: err}
	}

	out, err := enc(values)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(out)

	return err
}

func readData(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading data from stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-supplied data file
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}

	return data, nil
}
