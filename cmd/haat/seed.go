package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"haat/internal/auth"
	"haat/internal/seed"
)

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap super admin and load catalog fixtures",
		Long: `Create the bootstrap super admin from seed.admin_email and
seed.admin_password, then upsert categories, artisans, products and banners
from a YAML fixture. Safe to run repeatedly; product stock is never reset.

Examples:
  haat seed
  haat seed --file deploy/seed.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, lg, s, err := bootstrap()
			if err != nil {
				return err
			}
			defer lg.Sync()
			defer s.Close()
			ctx := cmd.Context()
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("automigrate failed: %w", err)
			}
			if _, err := seed.SuperAdmin(ctx, s, auth.NewHasher(cfg.Auth.BcryptCost), cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, lg); err != nil {
				return fmt.Errorf("seed super admin: %w", err)
			}
			if file == "" {
				return nil
			}
			f, err := seed.ParseFile(file)
			if err != nil {
				return err
			}
			_, err = seed.Catalog(ctx, s, f, lg)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "catalog fixture (YAML)")
	return cmd
}
