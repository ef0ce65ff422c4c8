package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Build every configured input filter",
		Long: `Build every input filter declared by the spec files and report its build
ID and size. Builds run on --workers goroutines. The report follows
declaration order and stops with exit code 3 at the first input filter
that cannot be built.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := newEnvironment(cmd.Context())
			if err != nil {
				return err
			}
			defer env.finish(cmd.ErrOrStderr())

			names := env.names()

			for _, r := range buildAll(env, names, workers) {
				if r.err != nil {
					return r.err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok    %s (%d entries, build %s)\n", r.name, r.filter.Len(), r.filter.ID())
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d input filter(s) built\n", len(names))

			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent builds (0 = GOMAXPROCS)")

	return cmd
}
