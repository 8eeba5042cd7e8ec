// Package cli implements the rxscan command line tool, which runs the
// prescription pipeline on a local file or on medicine names and prints the
// normalized records as JSON.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/giygas/prescription-api/app"
	"github.com/giygas/prescription-api/config"
	"github.com/giygas/prescription-api/interfaces"
	"github.com/giygas/prescription-api/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// AnalyzerFactory builds the analyzer when a command runs, so flags and the
// environment are read first.
type AnalyzerFactory func() (interfaces.Analyzer, error)

// RootOptions holds the global flags.
type RootOptions struct {
	Timeout  time.Duration
	Full     bool
	LogLevel string

	timeoutSet bool // --timeout given on the command line
}

// NewRootCmd creates the rxscan command tree. A nil factory builds the
// Gemini-backed pipeline from the environment.
func NewRootCmd(factory AnalyzerFactory) *cobra.Command {
	return newRootCmd(&RootOptions{}, factory)
}

func newRootCmd(opts *RootOptions, factory AnalyzerFactory) *cobra.Command {
	if factory == nil {
		factory = func() (interfaces.Analyzer, error) { return defaultAnalyzer(opts) }
	}

	rootCmd := &cobra.Command{
		Use:           "rxscan",
		Short:         "Extract and describe the medicines of a prescription",
		Long:          "rxscan reads a prescription document or a list of medicine names, asks the knowledge source about them and prints one JSON record per medicine.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.timeoutSet = cmd.Flags().Changed("timeout")
		},
	}

	rootCmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 60*time.Second, "Deadline for the whole analysis (defaults to REQUEST_TIMEOUT_SECONDS when set)")
	rootCmd.PersistentFlags().BoolVar(&opts.Full, "full", false, "Print the analysis envelope (id and candidates) instead of the records only")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "Log level on stderr: debug|info|warn|error")

	rootCmd.AddCommand(newAnalyzeCmd(factory, opts))
	rootCmd.AddCommand(newQueryCmd(factory, opts))

	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd(nil)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func defaultAnalyzer(opts *RootOptions) (interfaces.Analyzer, error) {
	_ = godotenv.Load()
	logging.InitConsoleLogger(os.Stderr, opts.LogLevel)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyConfigDefaults(opts, cfg)

	components, err := app.Build(cfg)
	if err != nil {
		return nil, err
	}
	return components.Pipeline, nil
}

// applyConfigDefaults fills the options the user left unset from cfg.
func applyConfigDefaults(opts *RootOptions, cfg *config.Config) {
	if !opts.timeoutSet && cfg.RequestTimeout > 0 {
		opts.Timeout = cfg.RequestTimeout
	}
}

func withTimeout(ctx context.Context, opts *RootOptions) (context.Context, context.CancelFunc) {
	if opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, opts.Timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
