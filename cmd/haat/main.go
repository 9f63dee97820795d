package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"haat/internal/config"
	"haat/internal/logger"
	"haat/internal/store"
)

var Version = "dev"

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           "haat",
		Short:         "Haat artisan marketplace backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yaml, ./deploy/config.yaml, /etc/haat/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, builds the logger and opens the database. The
// caller owns closing the store and syncing the logger.
func bootstrap() (*config.Config, *zap.SugaredLogger, *store.Store, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	lg := logger.New(cfg.Log.Level, cfg.Log.Development)
	s, err := store.Open(cfg.DB, lg)
	if err != nil {
		_ = lg.Sync()
		return nil, nil, nil, err
	}
	return cfg, lg, s, nil
}
