package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Calendar reminder notification engine",
	Long:  `Schedules reminder emails for calendar events and delivers them when they are due.`,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "./config", "directory containing config.yaml")

	rootCmd.AddCommand(serveCmd, sweepCmd, migrateCmd)
}

func main() {
	zlog.Init()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
