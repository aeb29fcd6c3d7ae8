package main

import (
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"

	"github.com/Juanes7222/AppNotify/internal/config"
	"github.com/Juanes7222/AppNotify/internal/repository/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}

		if err := migrations.Up(cfg.Database.Master.DSN()); err != nil {
			return err
		}

		zlog.Logger.Info().Msg("migrations applied")
		return nil
	},
}
