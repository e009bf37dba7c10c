package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/absher-session/internal/cli"
	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	var (
		force   bool
		repeats int
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Fetch verification proofs through the cache",
		Long: `Fetch the requirements and medical-exam proofs for the signed-in user.
Repeated fetches inside the freshness window are served from the cache
unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			a := newApp(cfg, catalog, nil)
			defer a.close()

			return runVerify(cmd.Context(), cmd.OutOrStdout(), a, force, repeats)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "bypass the freshness window")
	cmd.Flags().IntVar(&repeats, "repeat", 1, "number of fetches to make")

	return cmd
}

func runVerify(ctx context.Context, out io.Writer, a *app, force bool, repeats int) error {
	p := printer{w: out}

	for i := range max(repeats, 1) {
		start := time.Now()
		err := cli.RunWithSpinner(out, "التحقق عبر توكلنا", func() error {
			if force {
				return a.machine.RefreshVerification(ctx)
			}
			return a.machine.EnsureVerificationFreshness(ctx)
		})

		p.line(cli.SubtleStyle.Render(fmt.Sprintf("#%d · %s", i+1, time.Since(start).Round(time.Millisecond))))
		p.line(renderVerification(a))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && i == max(repeats, 1)-1 {
			return err
		}
	}

	p.line(cli.SubtleStyle.Render(fmt.Sprintf("provider calls: %d", a.provider.Calls())))
	return nil
}
