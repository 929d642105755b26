package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/social-trust-core/internal/di"
)

func newServeCommand(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, in sweep mode, the background ban sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, runtime, err := bootstrap(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a, cleanup, err := di.InitializeApp(cfg, logger, runtime)
			if err != nil {
				_ = runtime.Shutdown(context.Background())
				return err
			}
			defer cleanup()
			logger.Info("trust core starting",
				"env", cfg.Environment,
				"enforcement_mode", cfg.EnforcementMode,
				"redis", cfg.RedisAddr != "",
				"amqp", cfg.AMQPURL != "",
			)
			return a.Run(ctx)
		},
	}
}
