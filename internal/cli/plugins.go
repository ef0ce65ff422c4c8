package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/inputfilter/internal/config"
	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/validator"
)

func newPluginsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the registered filters and validators",
		Long: `List the names registered on the filter and validator managers,
including aliases declared by the configured spec files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filters := filter.NewManager()
			validators := validator.NewManager()

			if specs := config.FromContext(cmd.Context()).Specs; len(specs) > 0 {
				docs, err := config.LoadSpecFiles(specs...)
				if err != nil {
					return &ExitError{Code: ExitUsage, Err: err}
				}

				config.MergeAliases(docs...).Apply(filters, validators)
			}

			w := cmd.OutOrStdout()

			_, _ = fmt.Fprintf(w, "%s:\n", filter.ManagerName)
			for _, name := range filters.Names() {
				_, _ = fmt.Fprintf(w, "  %s\n", name)
			}

			_, _ = fmt.Fprintf(w, "%s:\n", validator.ManagerName)
			for _, name := range validators.Names() {
				_, _ = fmt.Fprintf(w, "  %s\n", name)
			}

			return nil
		},
	}
}
