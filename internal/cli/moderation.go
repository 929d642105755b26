package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/social-trust-core/internal/di"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

func newSweepCommand(opts *options) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one ban sweep over all report aggregates and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return withCore(ctx, cmd, func(core *di.Core) error {
				report, err := core.Enforcer.Sweep(ctx)
				if opts.ci {
					return printCIResult(cmd.OutOrStdout(), "sweep", sweepSummary(report), err)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), renderSweepReport(report))
				if err == nil && report.Count(service.OutcomeFailed) > 0 {
					err = fmt.Errorf("%d targets failed", report.Count(service.OutcomeFailed))
				}
				return err
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "abort the sweep after this long")
	return cmd
}

func newBanCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ban USER_ID",
		Short: "Ban a user, revoke their sessions and resolve their reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withCore(ctx, cmd, func(core *di.Core) error {
				result, err := core.Enforcer.BanUser(ctx, args[0])
				if opts.ci {
					return printCIResult(cmd.OutOrStdout(), "ban", banSummary(result), err)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), renderBanResult(result))
				return err
			})
		},
	}
}

func withCore(ctx context.Context, cmd *cobra.Command, fn func(core *di.Core) error) error {
	cfg, logger, runtime, err := bootstrap(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = runtime.Shutdown(context.Background()) }()
	core, cleanup, err := di.InitializeStandaloneCore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(core)
}
