package main

import (
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single delivery sweep and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.service.Sweep(cmd.Context())
		if err != nil {
			return err
		}

		zlog.Logger.Info().
			Int("due", res.Due).
			Int("sent", res.Sent).
			Int("failed", res.Failed).
			Int("skipped", res.Skipped).
			Int("errors", res.Errors).
			Msg("sweep done")

		return nil
	},
}
