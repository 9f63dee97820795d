package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, lg, s, err := bootstrap()
			if err != nil {
				return err
			}
			defer lg.Sync()
			defer s.Close()
			if err := s.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("automigrate failed: %w", err)
			}
			lg.Infow("schema migrated")
			return nil
		},
	}
}
