package cli

import (
	"github.com/spf13/cobra"
)

func newQueryCmd(factory AnalyzerFactory, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <name>...",
		Short: "Describe the given medicine names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := factory()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), opts)
			defer cancel()

			analysis, err := analyzer.AnalyzeNames(ctx, args)
			if err != nil {
				return err
			}

			if opts.Full {
				return printJSON(cmd.OutOrStdout(), analysis)
			}
			return printJSON(cmd.OutOrStdout(), analysis.Medicines)
		},
	}
}
