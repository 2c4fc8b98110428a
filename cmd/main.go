package main

import (
	"os"

	"github.com/spf13/cobra"

	"jobboard/config"
	"jobboard/logger"
)

var (
	configPath string
	appConfig  *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "jobboard",
	Short: "Job board server, workers and admin tools",
	Long: `Job board: job postings, categories and applications over a JSON API
and server-rendered pages.

Settings come from .env, an optional --config file and JOBBOARD_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		appConfig = cfg
		return logger.Initialize(cfg.Log.Level, cfg.Log.JSON)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, toml or json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(sinkCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(applicationCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
