package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/giygas/prescription-api/doctext"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd(factory AnalyzerFactory, opts *RootOptions) *cobra.Command {
	var mimeType string

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a prescription document (text, image or PDF)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			analyzer, err := factory()
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), opts)
			defer cancel()

			analysis, err := analyzer.AnalyzeDocument(ctx, doctext.Document{
				Filename: filepath.Base(args[0]),
				MIMEType: mimeType,
				Data:     data,
			})
			if err != nil {
				return err
			}

			if opts.Full {
				return printJSON(cmd.OutOrStdout(), analysis)
			}
			return printJSON(cmd.OutOrStdout(), analysis.Medicines)
		},
	}

	cmd.Flags().StringVar(&mimeType, "mime", "", "Document MIME type, sniffed from the content when empty")
	return cmd
}
