package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/observability"
)

type options struct {
	envFile string
	ci      bool
	version string
}

// NewRootCommand returns the trustcore command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &options{version: version}
	cmd := &cobra.Command{
		Use:           "trustcore",
		Short:         "Session, verification and moderation core for the social backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "extra env file loaded before configuration; never overrides set variables")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newServeCommand(opts), newSweepCommand(opts), newBanCommand(opts), newVersionCommand(opts))
	return cmd
}

func newVersionCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), opts.version)
			return err
		},
	}
}

// bootstrap loads configuration, the process logger and the telemetry
// runtime. Callers own shutting the runtime down.
func bootstrap(ctx context.Context, w io.Writer) (*config.Config, *slog.Logger, *observability.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, lp, err := observability.NewLogger(ctx, cfg, w)
	if err != nil {
		return nil, nil, nil, err
	}
	runtime, err := observability.InitRuntime(ctx, cfg, logger, lp)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, runtime, nil
}
